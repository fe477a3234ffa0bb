package license

import (
	"bufio"
	_ "embed"
	"regexp"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

//go:embed spdx.tsv
var vocabulary string

// entry is one canonical license with its search tokens.
type entry struct {
	id       string
	versions map[string]bool
	tokens   map[string]bool
}

// Resolver maps license text to identifiers. It is safe for concurrent use.
type Resolver struct {
	logger  *log.Logger
	entries []*entry
	byID    map[string]string // lower(id) -> id
	byName  map[string]string // normalized name -> id
}

// New builds a resolver over the embedded vocabulary. A nil logger uses
// log.Default().
func New(logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.Default()
	}
	r := &Resolver{
		logger: logger,
		byID:   make(map[string]string),
		byName: make(map[string]string),
	}
	index := make(map[string]*entry)

	sc := bufio.NewScanner(strings.NewReader(vocabulary))
	for sc.Scan() {
		line := sc.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, name, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		e := index[id]
		if e == nil {
			e = &entry{id: id, versions: make(map[string]bool), tokens: make(map[string]bool)}
			index[id] = e
			r.entries = append(r.entries, e)
			r.byID[strings.ToLower(id)] = id
			e.addTokens(strings.ReplaceAll(id, "-", " "))
		}
		e.addTokens(name)
		if _, taken := r.byName[normalize(name)]; !taken {
			r.byName[normalize(name)] = id
		}
	}
	return r
}

func (e *entry) addTokens(text string) {
	for _, tok := range tokenize(text) {
		if v, ok := versionOf(tok); ok {
			e.versions[v] = true
			continue
		}
		if !stopWords[tok] {
			e.tokens[tok] = true
		}
	}
}

var (
	defaultOnce     sync.Once
	defaultResolver *Resolver
)

// Resolve uses a shared resolver logging to log.Default().
func Resolve(text string) string {
	defaultOnce.Do(func() { defaultResolver = New(nil) })
	return defaultResolver.Resolve(text)
}

// IsValid reports whether id is a known identifier (case-insensitive).
func (r *Resolver) IsValid(id string) bool {
	_, ok := r.byID[strings.ToLower(id)]
	return ok
}

// IDs returns every canonical identifier in vocabulary order.
func (r *Resolver) IDs() []string {
	ids := make([]string, len(r.entries))
	for i, e := range r.entries {
		ids[i] = e.id
	}
	return ids
}

// familyDefaults are the variants assumed for a lone family token.
var familyDefaults = map[string]string{
	"mit":       "MIT",
	"bsd":       "BSD-3-Clause",
	"apache":    "Apache-2.0",
	"isc":       "ISC",
	"mpl":       "MPL-2.0",
	"zlib":      "Zlib",
	"unlicense": "Unlicense",
	"wtfpl":     "WTFPL",
	"cc0":       "CC0-1.0",
	"psf":       "PSF-2.0",
	"boost":     "BSL-1.0",
}

// Resolve returns the identifier for text, or "" if no confident match
// exists.
func (r *Resolver) Resolve(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if id, ok := r.byID[strings.ToLower(text)]; ok {
		return id
	}
	if id, ok := r.byName[normalize(text)]; ok {
		return id
	}

	var (
		tokens  []string
		version string
	)
	for _, tok := range tokenize(text) {
		if v, ok := versionOf(tok); ok {
			if version == "" {
				version = v
			}
			continue
		}
		if !stopWords[tok] {
			tokens = append(tokens, tok)
		}
	}

	pool := r.entries
	if version != "" {
		pool = nil
		for _, e := range r.entries {
			if e.versions[version] {
				pool = append(pool, e)
			}
		}
	}

	if version == "" && len(tokens) == 1 {
		if id, ok := familyDefaults[tokens[0]]; ok {
			return id
		}
	}

	for _, tok := range tokens {
		id, ok := r.byID[tok]
		if !ok {
			continue
		}
		for _, e := range pool {
			if e.id == id {
				return id
			}
		}
	}

	// Ties go to the entry listed first; the vocabulary lists the common
	// variant of each family first.
	var (
		best      *entry
		bestScore int
	)
	for _, e := range pool {
		score := 0
		for _, tok := range tokens {
			if e.tokens[tok] {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = e, score
		}
	}
	if best == nil {
		r.logger.Warn("license not resolved", "text", text)
		return ""
	}
	r.logger.Warn("license assumed", "text", text, "id", best.id, "score", bestScore)
	return best.id
}

var (
	splitRE   = regexp.MustCompile(`[^a-z0-9.+]+`)
	versionRE = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)\+?$`)
	spaceRE   = regexp.MustCompile(`\s+`)
)

// stopWords never contribute to a match.
var stopWords = map[string]bool{
	"the": true, "license": true, "licence": true, "licensed": true, "licenses": true,
	"copyright": true, "version": true, "v": true, "ver": true, "under": true,
	"terms": true, "of": true, "and": true, "or": true, "a": true, "an": true,
	"see": true, "file": true, "for": true, "details": true, "agreement": true,
	"public": true, "software": true, "with": true, "w": true, "c": true,
}

func tokenize(text string) []string {
	var out []string
	for _, tok := range splitRE.Split(strings.ToLower(text), -1) {
		tok = strings.Trim(tok, ".")
		if tok != "" && tok != "+" {
			out = append(out, tok)
		}
	}
	return out
}

// versionOf reports whether tok is a version number and returns it with
// trailing ".0" components removed, so "2", "2.0" and "v2.0" agree.
func versionOf(tok string) (string, bool) {
	m := versionRE.FindStringSubmatch(tok)
	if m == nil {
		return "", false
	}
	v := m[1]
	for strings.HasSuffix(v, ".0") {
		v = strings.TrimSuffix(v, ".0")
	}
	return v, true
}

func normalize(name string) string {
	return spaceRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), " ")
}
