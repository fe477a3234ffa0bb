package extract

import (
	"path"
	"sort"
	"strings"
)

// DefaultFilenameKeyed lists extensions that dispatch on the whole file
// name, so fixed-name manifests like requirements.txt and pom.xml are
// told apart from arbitrary files sharing their extension.
var DefaultFilenameKeyed = []string{"xml", "txt", "yml", "yaml", "json", "toml", "mod", "lock"}

// Registry maps dispatch keys to extractors. Keys are extensions without
// the dot ("py", "java"), or full file names for filename-keyed
// extensions and extension-less files ("requirements.txt", "Gemfile").
type Registry struct {
	entries         map[string]Entry
	folded          map[string]string // lower-cased key to registered key
	filenameKeyed   map[string]bool
	aliases         []alias
	sourceManifests map[string]Entry
}

type alias struct {
	pattern string
	key     string
}

// NewRegistry returns an empty registry using [DefaultFilenameKeyed].
func NewRegistry() *Registry {
	r := &Registry{
		entries:         make(map[string]Entry),
		folded:          make(map[string]string),
		filenameKeyed:   make(map[string]bool),
		sourceManifests: make(map[string]Entry),
	}
	for _, ext := range DefaultFilenameKeyed {
		r.filenameKeyed[ext] = true
	}
	return r
}

// Register adds e under each key. A later registration replaces an
// earlier one, and also wins case-insensitive lookups over earlier keys
// differing only in case.
func (r *Registry) Register(e Entry, keys ...string) {
	for _, k := range keys {
		r.entries[k] = e
		r.folded[strings.ToLower(k)] = k
	}
}

// Alias dispatches file names matching the glob pattern as key, for
// example "requirements-*.txt" as "requirements.txt".
func (r *Registry) Alias(pattern, key string) {
	r.aliases = append(r.aliases, alias{pattern: pattern, key: key})
}

// RegisterSourceManifest routes a source file that doubles as a manifest
// (conanfile.py) to a manifest extractor in addition to its language
// extractor.
func (r *Registry) RegisterSourceManifest(filename string, e Entry) {
	r.sourceManifests[filename] = e
}

// Key derives the dispatch key of a path.
func (r *Registry) Key(p string) string {
	base := path.Base(p)
	for _, a := range r.aliases {
		if ok, _ := path.Match(a.pattern, base); ok {
			return a.key
		}
	}
	ext := strings.TrimPrefix(path.Ext(base), ".")
	if ext == "" || ext == base[1:] && strings.HasPrefix(base, ".") {
		return base
	}
	if r.filenameKeyed[strings.ToLower(ext)] {
		return base
	}
	return strings.ToLower(ext)
}

// Lookup returns the entry for p. File-name keys are matched exactly
// first and then case-insensitively.
func (r *Registry) Lookup(p string) (Entry, bool) {
	key := r.Key(p)
	if e, ok := r.entries[key]; ok {
		return e, true
	}
	if k, ok := r.folded[strings.ToLower(key)]; ok {
		return r.entries[k], true
	}
	return Entry{}, false
}

// SourceManifest returns the manifest entry for a source file that is
// also a manifest.
func (r *Registry) SourceManifest(p string) (Entry, bool) {
	e, ok := r.sourceManifests[path.Base(p)]
	return e, ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Entries returns the registered entries grouped by name, each with its
// keys, in name order.
func (r *Registry) Entries() map[string][]string {
	out := make(map[string][]string)
	for _, k := range r.Keys() {
		e := r.entries[k]
		out[e.Name] = append(out[e.Name], k)
	}
	return out
}
