package manifest

import (
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/purl"
)

// PackageJSON reads npm package.json files. Scoped packages keep their
// scope as namespace. Local, workspace and URL references are skipped.
var PackageJSON = Format{Name: "npm", Parse: parsePackageJSON}

var npmSections = []string{"dependencies", "devDependencies", "peerDependencies", "optionalDependencies"}

func parsePackageJSON(path, content string) ([]Dependency, error) {
	if !gjson.Valid(content) {
		return nil, entryError(path, "invalid JSON")
	}
	doc := gjson.Parse(content)

	var (
		out  = []Dependency{}
		errs error
	)
	for _, section := range npmSections {
		doc.Get(section).ForEach(func(k, v gjson.Result) bool {
			name, spec := k.String(), v.String()
			if v.Type != gjson.String {
				errs = multierr.Append(errs, entryError(path, "%s: %s has a non-string version", section, name))
				return true
			}
			if npmLocal(spec) {
				return true
			}
			if strings.HasPrefix(spec, "npm:") {
				// Aliased install: "npm:real-name@range".
				alias := strings.TrimPrefix(spec, "npm:")
				if i := strings.LastIndex(alias, "@"); i > 0 {
					name, spec = alias[:i], alias[i+1:]
				} else {
					name, spec = alias, ""
				}
			}
			var ns string
			if strings.HasPrefix(name, "@") {
				ns, name = splitName(name)
			}
			out = append(out, Dependency{
				Section: section,
				PURL: purl.PackageURL{
					Type:      purl.TypeNPM,
					Namespace: ns,
					Name:      name,
					Version:   pinned(spec),
				},
			})
			return true
		})
	}
	return out, errs
}

func npmLocal(spec string) bool {
	for _, p := range []string{"file:", "link:", "workspace:", "portal:", "git", "http:", "https:"} {
		if strings.HasPrefix(spec, p) {
			return true
		}
	}
	return false
}
