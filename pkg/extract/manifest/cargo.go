package manifest

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/purl"
)

// Cargo reads Cargo.toml manifests, including target-specific tables.
// Renamed dependencies are reported under their crate name, workspace
// inheritance is resolved against [workspace.dependencies] in the same
// file, and path dependencies are skipped.
var Cargo = Format{Name: "cargo", Parse: parseCargo}

var cargoTables = []string{"dependencies", "dev-dependencies", "build-dependencies"}

func parseCargo(path, content string) ([]Dependency, error) {
	var doc map[string]any
	if _, err := toml.Decode(content, &doc); err != nil {
		return nil, documentError(path, err)
	}

	workspace := map[string]any{}
	if ws, ok := doc["workspace"].(map[string]any); ok {
		if d, ok := ws["dependencies"].(map[string]any); ok {
			workspace = d
		}
	}

	var (
		out  = []Dependency{}
		errs error
	)
	add := func(section string, table map[string]any) {
		for _, name := range sortedKeys(table) {
			d, skip, err := cargoDependency(path, section, name, table[name], workspace)
			switch {
			case err != nil:
				errs = multierr.Append(errs, err)
			case !skip:
				out = append(out, d)
			}
		}
	}
	for _, section := range cargoTables {
		if t, ok := doc[section].(map[string]any); ok {
			add(section, t)
		}
	}
	if targets, ok := doc["target"].(map[string]any); ok {
		for _, cfg := range sortedKeys(targets) {
			t, _ := targets[cfg].(map[string]any)
			for _, section := range cargoTables {
				if deps, ok := t[section].(map[string]any); ok {
					add("target."+cfg+"."+section, deps)
				}
			}
		}
	}
	if len(workspace) > 0 {
		add("workspace.dependencies", workspace)
	}
	return out, errs
}

func cargoDependency(path, section, name string, v any, workspace map[string]any) (d Dependency, skip bool, err error) {
	var (
		version string
		quals   = map[string]string{}
	)
	switch spec := v.(type) {
	case string:
		version = spec
	case map[string]any:
		if inherit, _ := spec["workspace"].(bool); inherit {
			ws, ok := workspace[name]
			if !ok {
				return d, false, entryError(path, "%s: %s inherits from a workspace that does not declare it", section, name)
			}
			return cargoDependency(path, section, name, ws, nil)
		}
		if _, local := spec["path"]; local {
			if _, ok := spec["version"]; !ok {
				return d, true, nil
			}
		}
		if pkg, ok := spec["package"].(string); ok && pkg != "" {
			name = pkg
		}
		version, _ = spec["version"].(string)
		if git, ok := spec["git"].(string); ok {
			quals["vcs_url"] = "git+" + strings.TrimPrefix(git, "git+")
		}
	default:
		return d, false, entryError(path, "%s: %s has an unsupported specification", section, name)
	}
	return Dependency{
		Section: section,
		PURL: purl.PackageURL{
			Type:       purl.TypeCargo,
			Name:       name,
			Version:    pinned(version),
			Qualifiers: quals,
		},
	}, false, nil
}

// sortedKeys returns the keys of a decoded TOML table. TOML tables are
// unordered once decoded, so entries are reported by name.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
