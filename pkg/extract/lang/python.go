package lang

import (
	"path"
	"regexp"
	"strings"

	"github.com/matzehuels/stackscan/pkg/extract"
)

// Python handles "import a.b as c" and "from x import (a, b as c)",
// including relative "from ..pkg import mod".
var Python = &Grammar{
	Name:       "python",
	Extensions: []string{"py", "pyw", "pyi"},
	Pattern: regexp.MustCompile(
		`(?m)^[ \t]*(?:from[ \t]+(?P<from>[\w.]+)[ \t]+)?import[ \t]+(?P<imports>\([^)]*\)|[^\n#;]+)`),
	Refs:              pythonRefs,
	StdlibURL:         pythonStdlib,
	DefaultStdlibBase: "https://docs.python.org/3/library",
	CommentPrefixes:   []string{"#"},
	BindsNames:        true,
}

func pythonRefs(g map[string]string, dir string) []Ref {
	from := g["from"]
	var (
		base     string
		basePath string
		relative bool
	)
	if from != "" {
		base, basePath, relative = pythonModule(from, dir)
	}

	var refs []Ref
	for _, item := range splitList(g["imports"]) {
		name, alias := cutAlias(item, "as")
		if from == "" {
			group, last := splitLast(name, ".")
			refs = append(refs, Ref{
				Group:   group,
				Name:    last,
				Binding: alias,
				Path:    strings.ReplaceAll(group, ".", "/"),
			})
			continue
		}
		if name == "*" {
			// The module itself is the dependency.
			group, last := splitLast(base, ".")
			refs = append(refs, Ref{
				Group:    group,
				Name:     last,
				Binding:  extract.Wildcard,
				Path:     path.Dir("/" + basePath)[1:],
				Relative: relative,
			})
			continue
		}
		refs = append(refs, Ref{
			Group:    base,
			Name:     name,
			Binding:  alias,
			Path:     basePath,
			Relative: relative,
		})
	}
	return refs
}

// pythonModule resolves a "from" module. Leading dots walk up from dir:
// one dot is dir itself, each further dot its parent.
func pythonModule(from, dir string) (module, slashPath string, relative bool) {
	dots := len(from) - len(strings.TrimLeft(from, "."))
	if dots == 0 {
		return from, strings.ReplaceAll(from, ".", "/"), false
	}
	rel := strings.Repeat("../", dots-1) + strings.ReplaceAll(from[dots:], ".", "/")
	resolved := extract.Resolve(dir, "./"+rel)
	if resolved == "." {
		resolved = ""
	}
	return strings.ReplaceAll(resolved, "/", "."), resolved, true
}

func pythonStdlib(base string, ref Ref) string {
	mod := ref.Name
	if ref.Group != "" {
		mod = top(ref.Group, ".")
	}
	if mod == "" || mod == "*" {
		return ""
	}
	return base + "/" + mod + ".html"
}
