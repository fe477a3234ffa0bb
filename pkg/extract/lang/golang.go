package lang

import (
	"regexp"
	"strings"

	"golang.org/x/mod/module"

	"github.com/matzehuels/stackscan/pkg/extract"
)

var goSpecRE = regexp.MustCompile(`(?m)^[ \t]*(?:(?P<alias>[\w.]+)[ \t]+)?"(?P<path>[^"]+)"`)

// Golang handles single and parenthesized import declarations. Import
// paths name directories; paths of a module declared in the scanned tree
// are INTERNAL.
var Golang = &Grammar{
	Name:       "go",
	Extensions: []string{"go"},
	Pattern: regexp.MustCompile(
		`(?m)^import[ \t]*(?P<imports>\((?s:[^)]*)\)|(?:[\w.]+[ \t]+)?"[^"\n]+")`),
	Refs: func(g map[string]string, _ string) []Ref {
		var refs []Ref
		for _, m := range goSpecRE.FindAllStringSubmatch(strings.Trim(g["imports"], "()"), -1) {
			p := m[2]
			if module.CheckImportPath(p) != nil {
				continue
			}
			group, name := splitLast(p, "/")
			refs = append(refs, Ref{Group: group, Name: name, Binding: m[1], Path: group})
		}
		return refs
	},
	Internal: func(k *extract.KnownFiles, ref Ref) bool {
		full := strings.TrimPrefix(ref.Group+"/"+ref.Name, "/")
		return k.InModule(full)
	},
	StdlibURL: func(base string, ref Ref) string {
		full := strings.TrimPrefix(ref.Group+"/"+ref.Name, "/")
		// Only the standard library has import paths without a dot in
		// the first element.
		if strings.Contains(top(full, "/"), ".") {
			return ""
		}
		return base + "/" + full
	},
	DefaultStdlibBase: "https://pkg.go.dev",
	CommentPrefixes:   []string{"//"},
}

// Rust handles "use a::b::C;", "use a::{b, c::D as E};", "pub use" and
// "extern crate x;". Paths starting with crate, self or super are
// resolved inside the scanned tree.
var Rust = &Grammar{
	Name:       "rust",
	Extensions: []string{"rs"},
	Pattern: regexp.MustCompile(
		`(?m)^[ \t]*(?:pub(?:\([^)]*\))?[ \t]+)?(?:use|extern[ \t]+crate)[ \t]+(?P<from>(?:\w+::)*)(?P<imports>\{[^}]*\}|[\w*]+(?:[ \t]+as[ \t]+\w+)?)`),
	Refs:              rustRefs,
	Internal:          rustInternal,
	StdlibURL:         rustStdlib,
	DefaultStdlibBase: "https://doc.rust-lang.org",
	CommentPrefixes:   []string{"//"},
	BindsNames:        true,
}

func rustRefs(g map[string]string, dir string) []Ref {
	from := strings.TrimSuffix(g["from"], "::")
	var refs []Ref
	for _, item := range splitList(g["imports"]) {
		name, alias := cutAlias(item, "as")
		group := from
		if sub, last := splitLast(name, "::"); sub != "" {
			group = strings.TrimPrefix(from+"::"+sub, "::")
			name = last
		}
		if name == "self" {
			group, name = splitLast(group, "::")
		}
		if name == "*" {
			group, name = splitLast(group, "::")
			alias = extract.Wildcard
		}
		switch name {
		case "", "crate", "self", "super":
			continue
		}
		ref := Ref{Group: group, Name: name, Binding: alias}
		ref.Path, ref.Relative = rustPath(group, dir)
		refs = append(refs, ref)
	}
	return refs
}

// rustPath maps a use path to a slash path. crate:: paths are relative
// to the crate's src directory, which is approximated by the tree root.
func rustPath(group, dir string) (string, bool) {
	segs := strings.Split(group, "::")
	switch segs[0] {
	case "crate":
		return strings.Join(segs[1:], "/"), true
	case "self":
		return extract.Resolve(dir, "./"+strings.Join(segs[1:], "/")), true
	case "super":
		ups := 0
		for ups < len(segs) && segs[ups] == "super" {
			ups++
		}
		rel := strings.Repeat("../", ups) + strings.Join(segs[ups:], "/")
		return extract.Resolve(dir, rel), true
	}
	return strings.Join(segs, "/"), false
}

func rustInternal(k *extract.KnownFiles, ref Ref) bool {
	if k.Match(ref.Path, ref.Name) {
		return true
	}
	return ref.Relative && ref.Path != "" && k.MatchDir(ref.Path)
}

var rustRoots = map[string]bool{"std": true, "core": true, "alloc": true, "proc_macro": true, "test": true}

func rustStdlib(base string, ref Ref) string {
	segs := strings.Split(ref.Group, "::")
	if ref.Group == "" {
		segs = nil
	}
	if isLowerIdent(ref.Name) {
		segs = append(segs, ref.Name)
	}
	if len(segs) == 0 || !rustRoots[segs[0]] {
		return ""
	}
	return base + "/" + strings.Join(segs, "/") + "/index.html"
}

func isLowerIdent(s string) bool {
	return s != "" && s[0] >= 'a' && s[0] <= 'z'
}
