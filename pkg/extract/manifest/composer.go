package manifest

import (
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/purl"
)

// ComposerJSON reads PHP composer.json files. Platform requirements
// (php, extensions, libraries) are not packages and are skipped.
var ComposerJSON = Format{Name: "composer", Parse: parseComposerJSON}

func parseComposerJSON(path, content string) ([]Dependency, error) {
	if !gjson.Valid(content) {
		return nil, entryError(path, "invalid JSON")
	}
	doc := gjson.Parse(content)

	var (
		out  = []Dependency{}
		errs error
	)
	for _, section := range []string{"require", "require-dev"} {
		doc.Get(section).ForEach(func(k, v gjson.Result) bool {
			name := strings.ToLower(k.String())
			if composerPlatform(name) {
				return true
			}
			ns, pkg := splitName(name)
			if ns == "" {
				errs = multierr.Append(errs, entryError(path, "%s: %s is not a vendor/package name", section, name))
				return true
			}
			out = append(out, Dependency{
				Section: section,
				PURL: purl.PackageURL{
					Type:      purl.TypeComposer,
					Namespace: ns,
					Name:      pkg,
					Version:   pinned(v.String()),
				},
			})
			return true
		})
	}
	return out, errs
}

func composerPlatform(name string) bool {
	return name == "php" || name == "hhvm" ||
		strings.HasPrefix(name, "php-") ||
		strings.HasPrefix(name, "ext-") ||
		strings.HasPrefix(name, "lib-") ||
		strings.HasPrefix(name, "composer-")
}
