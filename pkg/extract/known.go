package extract

import (
	"path"
	"slices"
	"strings"
)

// KnownFiles is the read-only set of paths in the scanned tree, indexed
// for internal-reference checks. It is safe for concurrent reads.
type KnownFiles struct {
	paths   []string
	set     map[string]bool
	dirs    map[string]bool
	byStem  map[string][]string
	modules map[string]string // module path -> directory
}

// NewKnownFiles indexes paths. Paths are slash-separated and relative.
func NewKnownFiles(paths []string) *KnownFiles {
	k := &KnownFiles{
		set:     make(map[string]bool, len(paths)),
		dirs:    make(map[string]bool),
		byStem:  make(map[string][]string),
		modules: make(map[string]string),
	}
	for _, p := range paths {
		p = strings.TrimPrefix(path.Clean(p), "./")
		if k.set[p] {
			continue
		}
		k.set[p] = true
		k.paths = append(k.paths, p)
		k.byStem[Stem(p)] = append(k.byStem[Stem(p)], p)
		for d := Dir(p); d != ""; d = Dir(d) {
			k.dirs[d] = true
		}
	}
	slices.Sort(k.paths)
	return k
}

// Len returns the number of known paths.
func (k *KnownFiles) Len() int { return len(k.paths) }

// Paths returns the known paths in lexical order.
func (k *KnownFiles) Paths() []string { return slices.Clone(k.paths) }

// Has reports whether p is a known file.
func (k *KnownFiles) Has(p string) bool { return k.set[p] }

// HasDir reports whether d is a directory containing known files.
func (k *KnownFiles) HasDir(d string) bool { return k.dirs[strings.Trim(d, "/")] }

// WithStem returns the known files whose base name without extension is stem.
func (k *KnownFiles) WithStem(stem string) []string { return k.byStem[stem] }

// Match reports whether a reference to name inside the slash-separated
// group resolves to a known file:
//
//   - a file named name (any extension) exists, and when group is set,
//     it lives in a directory equal to or ending in group
//   - otherwise, when group is set, group itself names a file, so that
//     "from pkg.mod import func" matches pkg/mod.py
func (k *KnownFiles) Match(group, name string) bool {
	group = strings.Trim(group, "/")
	for _, p := range k.byStem[name] {
		if group == "" || containedIn(Dir(p), group) {
			return true
		}
	}
	if group == "" {
		return false
	}
	parent, last := path.Split(group)
	for _, p := range k.byStem[last] {
		if parent == "" || containedIn(Dir(p), strings.Trim(parent, "/")) {
			return true
		}
	}
	return false
}

// MatchDir reports whether dir, or a directory ending in dir, holds
// known files. Languages that import directories (Go) use it.
func (k *KnownFiles) MatchDir(dir string) bool {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return false
	}
	if k.dirs[dir] {
		return true
	}
	for d := range k.dirs {
		if strings.HasSuffix(d, "/"+dir) {
			return true
		}
	}
	return false
}

func containedIn(dir, group string) bool {
	return dir == group || strings.HasSuffix(dir, "/"+group)
}

// Stem returns the base name of p without its final extension.
func Stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

// Resolve joins a relative module path against dir. Leading "./" and
// "../" segments are applied to dir; the result is slash-separated and
// never escapes the root.
func Resolve(dir, rel string) string {
	if !strings.HasPrefix(rel, "./") && !strings.HasPrefix(rel, "../") && rel != "." && rel != ".." {
		return rel
	}
	joined := path.Join("/", dir, rel)
	return strings.TrimPrefix(joined, "/")
}

// AddModule records that the directory dir holds the root of a module
// whose import path is modPath (a go.mod "module" line). It must be
// called before the set is shared.
func (k *KnownFiles) AddModule(dir, modPath string) {
	if modPath != "" {
		k.modules[modPath] = strings.Trim(dir, "/")
	}
}

// InModule reports whether importPath belongs to a module of the
// scanned tree.
func (k *KnownFiles) InModule(importPath string) bool {
	for mod := range k.modules {
		if importPath == mod || strings.HasPrefix(importPath, mod+"/") {
			return true
		}
	}
	return false
}
