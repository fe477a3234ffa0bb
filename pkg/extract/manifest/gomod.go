package manifest

import (
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/purl"
)

// GoMod reads go.mod files. Indirect requirements get their own section.
// Replace directives pointing at another module swap the coordinates;
// replacements by a local directory leave the module in the tree and it
// is skipped.
var GoMod = Format{Name: "golang", Parse: parseGoMod}

func parseGoMod(path, content string) ([]Dependency, error) {
	f, err := modfile.Parse(path, []byte(content), nil)
	if err != nil {
		return nil, documentError(path, err)
	}

	replaced := make(map[string]module.Version)
	for _, r := range f.Replace {
		// A replacement without an old version applies to all versions.
		key := r.Old.Path
		if r.Old.Version != "" {
			key += "@" + r.Old.Version
		}
		replaced[key] = r.New
	}

	var (
		out  = []Dependency{}
		errs error
	)
	for _, r := range f.Require {
		mod := r.Mod
		if nv, ok := replaced[mod.Path+"@"+mod.Version]; ok {
			mod = nv
		} else if nv, ok := replaced[mod.Path]; ok {
			mod = nv
		}
		if modfile.IsDirectoryPath(mod.Path) {
			continue
		}
		if err := module.CheckPath(mod.Path); err != nil {
			errs = multierr.Append(errs, entryError(path, "line %d: %v", r.Syntax.Start.Line, err))
			continue
		}
		section := "require"
		if r.Indirect {
			section = "indirect"
		}
		ns, name := splitName(mod.Path)
		out = append(out, Dependency{
			Section: section,
			PURL: purl.PackageURL{
				Type:      purl.TypeGolang,
				Namespace: ns,
				Name:      name,
				Version:   mod.Version,
			},
		})
	}
	return out, errs
}

// ModulePath returns the module path a go.mod declares, or "".
func ModulePath(content []byte) string {
	return modfile.ModulePath(content)
}
