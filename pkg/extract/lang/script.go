package lang

import (
	"path"
	"regexp"
	"strings"

	"github.com/matzehuels/stackscan/pkg/extract"
)

// JavaScript handles ES module imports and re-exports, dynamic import()
// and CommonJS require(). One reference is produced per module; deep
// imports ("lodash/fp") resolve to their package.
var JavaScript = &Grammar{
	Name:       "javascript",
	Extensions: []string{"js", "jsx", "mjs", "cjs", "ts", "tsx", "mts", "cts"},
	Pattern: regexp.MustCompile(
		`(?m)(?:^[ \t]*(?:import|export)[ \t]+(?:type[ \t]+)?(?:[^'";]*?[ \t]+from[ \t]*)?|\brequire[ \t]*\([ \t]*|\bimport[ \t]*\([ \t]*)['"](?P<imports>[^'"\n]+)['"]`),
	Refs: func(g map[string]string, dir string) []Ref {
		spec := strings.TrimPrefix(g["imports"], "node:")
		if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
			resolved := extract.Resolve(dir, spec)
			group, name := splitLast(resolved, "/")
			return []Ref{{Group: group, Name: extract.Stem(name), Path: group, Relative: true}}
		}
		segs := strings.Split(spec, "/")
		if strings.HasPrefix(spec, "@") && len(segs) > 1 {
			return []Ref{{Group: segs[0], Name: segs[1], Path: segs[0]}}
		}
		return []Ref{{Name: segs[0]}}
	},
	Internal: func(k *extract.KnownFiles, ref Ref) bool {
		if !ref.Relative {
			return false
		}
		// "./lib" may name lib.js or lib/index.js.
		return k.Match(ref.Path, ref.Name) ||
			k.Has(strings.TrimPrefix(path.Join(ref.Path, ref.Name, "index.js"), "/")) ||
			k.Has(strings.TrimPrefix(path.Join(ref.Path, ref.Name, "index.ts"), "/"))
	},
	StdlibURL: func(base string, ref Ref) string {
		if ref.Group != "" {
			return ""
		}
		return base + "/" + ref.Name + ".html"
	},
	DefaultStdlibBase: "https://nodejs.org/api",
	CommentPrefixes:   []string{"//", "*", "/*"},
}

// Ruby handles require, require_relative and load.
var Ruby = &Grammar{
	Name:       "ruby",
	Extensions: []string{"rb", "rake"},
	Pattern: regexp.MustCompile(
		`(?m)^[ \t]*(?P<from>require_relative|require|load)[ \t]*\(?[ \t]*['"](?P<imports>[^'"\n]+)['"]`),
	Refs: func(g map[string]string, dir string) []Ref {
		spec := strings.TrimSuffix(g["imports"], ".rb")
		relative := g["from"] == "require_relative" || strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
		if relative {
			if !strings.HasPrefix(spec, ".") {
				spec = "./" + spec
			}
			spec = extract.Resolve(dir, spec)
		}
		group, name := splitLast(spec, "/")
		return []Ref{{Group: group, Name: name, Path: group, Relative: relative}}
	},
	StdlibURL: func(base string, ref Ref) string {
		lib := ref.Name
		if ref.Group != "" {
			lib = top(ref.Group, "/")
		}
		return base + "/" + lib + "/rdoc/index.html"
	},
	DefaultStdlibBase: "https://ruby-doc.org/stdlib/libdoc",
	CommentPrefixes:   []string{"#"},
}

// Perl handles "use Module::Name ...;" and "require Module::Name;".
var Perl = &Grammar{
	Name:       "perl",
	Extensions: []string{"pl", "pm", "t"},
	Pattern: regexp.MustCompile(
		`(?m)^[ \t]*(?:use|require|no)[ \t]+(?P<imports>[A-Za-z_]\w*(?:::\w+)*)[^;\n]*;`),
	Refs: func(g map[string]string, _ string) []Ref {
		if perlVersionRE.MatchString(g["imports"]) {
			return nil
		}
		group, name := splitLast(g["imports"], "::")
		return []Ref{{Group: group, Name: name, Path: strings.ReplaceAll(group, "::", "/")}}
	},
	StdlibURL: func(base string, ref Ref) string {
		return base + "/" + strings.TrimPrefix(ref.Group+"::"+ref.Name, "::")
	},
	DefaultStdlibBase: "https://perldoc.perl.org",
	CommentPrefixes:   []string{"#"},
}

var perlVersionRE = regexp.MustCompile(`^v\d+$`)

// All lists every supported language.
var All = []*Grammar{Python, Java, Scala, CSharp, Cpp, Golang, Rust, JavaScript, Ruby, Perl}
