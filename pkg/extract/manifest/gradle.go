package manifest

import (
	"regexp"
	"strings"

	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/purl"
)

// Gradle reads Groovy and Kotlin DSL build scripts.
//
// Both string notation ("group:name:version") and map notation
// (group: 'g', name: 'n', version: 'v') are recognized. Versions may
// reference ext, extra, def, val and var properties. Version catalog
// accessors (libs.xyz) are not declarations and are ignored.
var Gradle = Format{Name: "gradle", Parse: parseGradle}

var gradleConfigurations = `implementation|api|compile|compileOnly|runtimeOnly|runtime|testImplementation|testCompile|testCompileOnly|testRuntimeOnly|annotationProcessor|kapt|ksp|classpath|developmentOnly|compileOnlyApi`

var (
	gradleString = regexp.MustCompile(
		`(?m)^\s*(` + gradleConfigurations + `)\s*\(?\s*(?:platform\s*\(\s*)?["']([^"':\s]+):([^"':\s]+)(?::([^"':@\s]+))?(?::[^"'@\s]*)?(?:@[^"']*)?["']`,
	)
	gradleMap = regexp.MustCompile(
		`(?m)^\s*(` + gradleConfigurations + `)\s*\(?\s*group\s*[:=]\s*["']([^"']+)["']\s*,\s*name\s*[:=]\s*["']([^"']+)["'](?:\s*,\s*version\s*[:=]\s*["']([^"']+)["'])?`,
	)

	gradleProperty = regexp.MustCompile(
		`(?m)^\s*(?:ext\.|extra\[["']|(?:def|val|var)\s+)?([A-Za-z_][A-Za-z0-9_.]*)(?:["']\])?\s*(?:=|by\s+extra\s*\()\s*["']([^"']*)["']`,
	)
	gradleExtBlock = regexp.MustCompile(`(?s)ext\s*\{(.*?)\n\s*\}`)
	gradleExtEntry = regexp.MustCompile(`(?m)^\s*(?:set\(\s*["'])?([A-Za-z_][A-Za-z0-9_.]*)(?:["']\s*,|\s*=)\s*["']([^"']*)["']`)
)

func parseGradle(path, content string) ([]Dependency, error) {
	props := Resolve(gradleProperties(content), GradleRefs)

	type match struct {
		at      int
		section string
		group   string
		name    string
		version string
	}
	var matches []match
	for _, m := range gradleString.FindAllStringSubmatchIndex(content, -1) {
		matches = append(matches, match{
			at:      m[0],
			section: content[m[2]:m[3]],
			group:   content[m[4]:m[5]],
			name:    content[m[6]:m[7]],
			version: group(content, m, 4),
		})
	}
	for _, m := range gradleMap.FindAllStringSubmatchIndex(content, -1) {
		matches = append(matches, match{
			at:      m[0],
			section: content[m[2]:m[3]],
			group:   content[m[4]:m[5]],
			name:    content[m[6]:m[7]],
			version: group(content, m, 4),
		})
	}
	// Restore document order across both notations.
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].at < matches[j-1].at; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}

	var (
		out  = []Dependency{}
		errs error
	)
	for _, m := range matches {
		g, gok := props.Expand(m.group)
		n, nok := props.Expand(m.name)
		v, vok := props.Expand(m.version)
		if !gok || !nok || !vok {
			errs = multierr.Append(errs, entryError(path, "dependency %s:%s has unresolved properties %v", g, n, props.Unresolved()))
		}
		out = append(out, Dependency{
			Section: m.section,
			PURL: purl.PackageURL{
				Type:      purl.TypeMaven,
				Namespace: g,
				Name:      n,
				Version:   v,
			},
		})
	}
	return out, errs
}

// gradleProperties collects the string properties a build script
// declares.
func gradleProperties(content string) map[string]string {
	raw := make(map[string]string)
	for _, m := range gradleProperty.FindAllStringSubmatch(content, -1) {
		raw[strings.TrimPrefix(m[1], "ext.")] = m[2]
	}
	for _, block := range gradleExtBlock.FindAllStringSubmatch(content, -1) {
		for _, m := range gradleExtEntry.FindAllStringSubmatch(block[1], -1) {
			raw[m[1]] = m[2]
		}
	}
	return raw
}

// group returns submatch i of an index match, or "".
func group(s string, m []int, i int) string {
	if m[2*i] < 0 {
		return ""
	}
	return s[m[2*i]:m[2*i+1]]
}
