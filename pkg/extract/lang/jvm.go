package lang

import (
	"regexp"
	"strings"

	"github.com/matzehuels/stackscan/pkg/extract"
)

// jdkPrefixes are the package roots documented in the Java SE API.
var jdkPrefixes = []string{"java.", "javax.", "jdk.", "org.w3c.", "org.xml.", "org.ietf.", "org.omg."}

// Java handles single-type, wildcard and static imports.
var Java = &Grammar{
	Name:       "java",
	Extensions: []string{"java"},
	Pattern: regexp.MustCompile(
		`(?m)^[ \t]*import[ \t]+(?:static[ \t]+)?(?P<imports>[\w.]+(?:\.\*)?)[ \t]*;`),
	Refs:              javaRefs,
	StdlibURL:         javaStdlib,
	DefaultStdlibBase: "https://docs.oracle.com/javase/8/docs/api",
	CommentPrefixes:   []string{"//", "*", "/*"},
	BindsNames:        true,
}

func javaRefs(g map[string]string, _ string) []Ref {
	p, wildcard := strings.CutSuffix(g["imports"], ".*")
	group, name := splitLast(p, ".")
	ref := Ref{Group: group, Name: name, Path: strings.ReplaceAll(group, ".", "/")}
	if wildcard {
		ref.Binding = extract.Wildcard
	}
	return []Ref{ref}
}

func javaStdlib(base string, ref Ref) string {
	full := ref.Group + "." + ref.Name
	if !isJDK(full) {
		return ""
	}
	if isTypeName(ref.Name) {
		return base + "/" + strings.ReplaceAll(full, ".", "/") + ".html"
	}
	return base + "/" + strings.ReplaceAll(full, ".", "/") + "/package-summary.html"
}

func isJDK(p string) bool {
	for _, pre := range jdkPrefixes {
		if strings.HasPrefix(p, pre) {
			return true
		}
	}
	return false
}

func isTypeName(s string) bool {
	return s != "" && s[0] >= 'A' && s[0] <= 'Z'
}

// Scala handles "import a.b.C", "import a.b._" and selector lists
// "import a.b.{C, D => E}".
var Scala = &Grammar{
	Name:       "scala",
	Extensions: []string{"scala", "sc"},
	Pattern: regexp.MustCompile(
		`(?m)^[ \t]*import[ \t]+(?P<from>(?:\w+\.)*)(?P<imports>\{[^}]*\}|[\w*]+)`),
	Refs:              scalaRefs,
	StdlibURL:         scalaStdlib,
	DefaultStdlibBase: "https://www.scala-lang.org/api/current",
	CommentPrefixes:   []string{"//", "*", "/*"},
	BindsNames:        true,
}

func scalaRefs(g map[string]string, _ string) []Ref {
	from := strings.TrimSuffix(g["from"], ".")
	var refs []Ref
	for _, item := range splitList(g["imports"]) {
		name, alias := cutAlias(item, "=>")
		group := from
		if name == "_" || name == "*" {
			group, name = splitLast(from, ".")
			alias = extract.Wildcard
		}
		if alias == "_" {
			// "C => _" hides C; nothing is imported.
			continue
		}
		refs = append(refs, Ref{
			Group:   group,
			Name:    name,
			Binding: alias,
			Path:    strings.ReplaceAll(group, ".", "/"),
		})
	}
	return refs
}

func scalaStdlib(base string, ref Ref) string {
	full := strings.TrimPrefix(ref.Group+"."+ref.Name, ".")
	switch {
	case strings.HasPrefix(full, "scala."):
		return base + "/" + strings.ReplaceAll(full, ".", "/") + ".html"
	case isJDK(full):
		return javaStdlib(Java.DefaultStdlibBase, ref)
	}
	return ""
}
