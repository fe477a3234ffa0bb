package manifest

import (
	"regexp"
	"sort"
	"strings"
)

// Reference syntaxes understood by [Resolve].
var (
	// MavenRefs matches ${name}.
	MavenRefs = regexp.MustCompile(`\$\{([^{}]+)\}`)
	// MSBuildRefs matches $(name).
	MSBuildRefs = regexp.MustCompile(`\$\(([^()]+)\)`)
	// GradleRefs matches ${name} and $name.
	GradleRefs = regexp.MustCompile(`\$\{([^{}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// MaxPropertyLen bounds a resolved property value. A value that would
// expand past it is treated as unresolved.
const MaxPropertyLen = 64 << 10

// Properties is a set of manifest properties whose values may reference
// each other.
//
// Values are resolved transitively to a fixed point. A reference to an
// unknown property, or one that takes part in a cycle, is left as
// literal text and reported by [Properties.Unresolved]. Failures are
// remembered, so every name is expanded at most once.
type Properties struct {
	raw        map[string]string
	refs       *regexp.Regexp
	resolved   map[string]string
	unresolved map[string]bool
}

// Resolve resolves raw using the reference syntax refs. The name of a
// reference is the first non-empty submatch of refs.
func Resolve(raw map[string]string, refs *regexp.Regexp) *Properties {
	p := &Properties{
		raw:        raw,
		refs:       refs,
		resolved:   make(map[string]string, len(raw)),
		unresolved: make(map[string]bool),
	}
	for name := range raw {
		p.resolve(name, make(map[string]bool))
	}
	return p
}

// Get returns the resolved value of name. Values that could not be fully
// resolved are returned with their remaining references intact.
func (p *Properties) Get(name string) (string, bool) {
	if v, ok := p.resolved[name]; ok {
		return v, true
	}
	v, ok := p.raw[name]
	return v, ok
}

// Expand substitutes every resolvable reference in s. It reports whether
// all references could be substituted.
func (p *Properties) Expand(s string) (string, bool) {
	return p.expand(s, make(map[string]bool))
}

// Unresolved returns the names that could not be resolved, sorted.
func (p *Properties) Unresolved() []string {
	out := make([]string, 0, len(p.unresolved))
	for n := range p.unresolved {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (p *Properties) resolve(name string, visiting map[string]bool) (string, bool) {
	if v, ok := p.resolved[name]; ok {
		return v, true
	}
	if p.unresolved[name] {
		return "", false
	}
	raw, ok := p.raw[name]
	if !ok || visiting[name] {
		p.unresolved[name] = true
		return "", false
	}
	visiting[name] = true
	v, complete := p.expand(raw, visiting)
	delete(visiting, name)

	if !complete || len(v) > MaxPropertyLen {
		p.unresolved[name] = true
		return v, false
	}
	p.resolved[name] = v
	return v, true
}

func (p *Properties) expand(s string, visiting map[string]bool) (string, bool) {
	if !strings.Contains(s, "$") {
		return s, true
	}
	complete := true
	size := len(s)
	out := p.refs.ReplaceAllStringFunc(s, func(m string) string {
		name := p.refName(m)
		v, ok := p.resolve(name, visiting)
		if !ok || size+len(v) > MaxPropertyLen {
			complete = false
			return m
		}
		size += len(v)
		return v
	})
	return out, complete
}

func (p *Properties) refName(m string) string {
	for _, g := range p.refs.FindStringSubmatch(m)[1:] {
		if g != "" {
			return g
		}
	}
	return ""
}
