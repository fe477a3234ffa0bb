package manifest

import (
	"regexp"
	"strings"

	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/purl"
)

// Conan reads conanfile.txt requirement sections.
var Conan = Format{Name: "conan", Parse: parseConanText}

// ConanRecipe reads the requirements a conanfile.py recipe declares,
// either as class attributes or through self.requires calls.
var ConanRecipe = Format{Name: "conan", Parse: parseConanRecipe}

var conanSections = map[string]bool{
	"requires":       true,
	"tool_requires":  true,
	"build_requires": true,
	"test_requires":  true,
}

var (
	conanReference = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_.+-]*)/(\[[^\]]*\]|[^@#\s]+)(?:@([^/#\s]+)/([^#\s]+))?(?:#(\S+))?$`)
	conanAttribute = regexp.MustCompile(`(?m)^\s*(requires|tool_requires|build_requires|test_requires)\s*=\s*(\([^)]*\)|\[[^\]]*\]|[^\n]*)`)
	conanCall      = regexp.MustCompile(`self\.(requires|tool_requires|build_requires|test_requires)\(\s*["']([^"']+)["']`)
	conanQuoted    = regexp.MustCompile(`["']([^"']+)["']`)
)

func parseConanText(path, content string) ([]Dependency, error) {
	var (
		out     = []Dependency{}
		errs    error
		section string
	)
	for n, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.Trim(line, "[]")
			continue
		}
		if !conanSections[section] {
			continue
		}
		d, err := conanDependency(path, n+1, section, line)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, d)
	}
	return out, errs
}

func parseConanRecipe(path, content string) ([]Dependency, error) {
	var (
		out  = []Dependency{}
		errs error
	)
	add := func(at int, section, ref string) {
		line := strings.Count(content[:at], "\n") + 1
		d, err := conanDependency(path, line, section, ref)
		if err != nil {
			errs = multierr.Append(errs, err)
			return
		}
		out = append(out, d)
	}
	for _, m := range conanAttribute.FindAllStringSubmatchIndex(content, -1) {
		section := content[m[2]:m[3]]
		for _, q := range conanQuoted.FindAllStringSubmatch(content[m[4]:m[5]], -1) {
			add(m[0], section, q[1])
		}
	}
	for _, m := range conanCall.FindAllStringSubmatchIndex(content, -1) {
		add(m[0], content[m[2]:m[3]], content[m[4]:m[5]])
	}
	return out, errs
}

// conanDependency reads a reference of the form
// name/version[@user/channel][#revision]. Version ranges carry no
// single version.
func conanDependency(path string, line int, section, ref string) (Dependency, error) {
	m := conanReference.FindStringSubmatch(strings.TrimSpace(ref))
	if m == nil {
		return Dependency{}, entryError(path, "line %d: cannot parse reference %q", line, ref)
	}
	version := m[2]
	if strings.HasPrefix(version, "[") {
		version = ""
	}
	return Dependency{
		Section: section,
		PURL: purl.PackageURL{
			Type:    purl.TypeConan,
			Name:    m[1],
			Version: version,
			Qualifiers: map[string]string{
				"user":    m[3],
				"channel": m[4],
				"rrev":    m[5],
			},
		},
	}, nil
}
