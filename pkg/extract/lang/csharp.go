package lang

import (
	"regexp"
	"strings"

	"github.com/matzehuels/stackscan/pkg/extract"
)

// CSharp handles "using A.B;", "using static A.B;", "global using A.B;"
// and alias directives "using X = A.B;".
var CSharp = &Grammar{
	Name:       "csharp",
	Extensions: []string{"cs"},
	Pattern: regexp.MustCompile(
		`(?m)^[ \t]*(?:global[ \t]+)?using[ \t]+(?:static[ \t]+)?(?:(?P<alias>\w+)[ \t]*=[ \t]*)?(?P<imports>[\w.]+)[ \t]*;`),
	Refs: func(g map[string]string, _ string) []Ref {
		group, name := splitLast(g["imports"], ".")
		return []Ref{{
			Group:   group,
			Name:    name,
			Binding: g["alias"],
			Path:    strings.ReplaceAll(group, ".", "/"),
		}}
	},
	// Namespaces map to folders by convention, not to files.
	Internal: func(k *extract.KnownFiles, ref Ref) bool {
		full := strings.Trim(ref.Path+"/"+ref.Name, "/")
		return k.MatchDir(full) || k.Match(ref.Path, ref.Name)
	},
	StdlibURL: func(base string, ref Ref) string {
		full := strings.TrimPrefix(ref.Group+"."+ref.Name, ".")
		if top(full, ".") != "System" && top(full, ".") != "Microsoft" {
			return ""
		}
		return base + "/" + strings.ToLower(full)
	},
	DefaultStdlibBase: "https://learn.microsoft.com/en-us/dotnet/api",
	CommentPrefixes:   []string{"//", "*", "/*"},
}

// cHeaders are the C standard headers; they are documented under /c/
// rather than /cpp/.
var cHeaders = map[string]bool{
	"assert": true, "complex": true, "ctype": true, "errno": true, "fenv": true,
	"float": true, "inttypes": true, "iso646": true, "limits": true, "locale": true,
	"math": true, "setjmp": true, "signal": true, "stdalign": true, "stdarg": true,
	"stdatomic": true, "stdbool": true, "stddef": true, "stdint": true, "stdio": true,
	"stdlib": true, "stdnoreturn": true, "string": true, "tgmath": true, "threads": true,
	"time": true, "uchar": true, "wchar": true, "wctype": true,
}

// Cpp handles #include with angle brackets and quotes. Quoted includes
// are resolved against the including file's directory first.
var Cpp = &Grammar{
	Name:       "cpp",
	Extensions: []string{"c", "h", "cc", "cpp", "cxx", "hpp", "hh", "hxx"},
	Pattern: regexp.MustCompile(
		`(?m)^[ \t]*#[ \t]*include[ \t]*(?P<delim>[<"])(?P<imports>[^>"\n]+)[>"]`),
	Refs: func(g map[string]string, dir string) []Ref {
		inc := strings.TrimSpace(g["imports"])
		group, name := splitLast(inc, "/")
		ref := Ref{Group: group, Name: name, Path: group}
		if g["delim"] == `"` {
			ref.Path = extract.Resolve(dir, "./"+group)
			if group == "" {
				ref.Path = dir
			}
		}
		return []Ref{ref}
	},
	Internal: func(k *extract.KnownFiles, ref Ref) bool {
		for _, p := range k.WithStem(extract.Stem(ref.Name)) {
			if strings.HasSuffix(p, "/"+strings.TrimPrefix(ref.Group+"/"+ref.Name, "/")) ||
				p == strings.TrimPrefix(ref.Path+"/"+ref.Name, "/") ||
				p == ref.Name {
				return true
			}
		}
		return false
	},
	StdlibURL: func(base string, ref Ref) string {
		if ref.Group != "" {
			return ""
		}
		stem := strings.TrimSuffix(ref.Name, ".h")
		if stem != ref.Name {
			if !cHeaders[stem] {
				return ""
			}
			return base + "/c/header/" + stem
		}
		if strings.Contains(ref.Name, ".") {
			return ""
		}
		return base + "/cpp/header/" + ref.Name
	},
	DefaultStdlibBase: "https://en.cppreference.com/w",
	CommentPrefixes:   []string{"//", "*", "/*"},
}
