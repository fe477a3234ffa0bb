package manifest

import (
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/purl"
)

// PyProject reads pyproject.toml: PEP 621 [project] dependencies and
// optional dependencies, and Poetry's [tool.poetry] dependency tables
// including groups. The python constraint, path and git dependencies
// are skipped.
var PyProject = Format{Name: "pyproject", Parse: parsePyProject}

// PoetryLock reads poetry.lock, which pins every package of the
// resolved environment.
var PoetryLock = Format{Name: "poetry", Parse: parsePoetryLock}

type pyProject struct {
	Project struct {
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

func parsePyProject(path, content string) ([]Dependency, error) {
	var doc pyProject
	if _, err := toml.Decode(content, &doc); err != nil {
		return nil, documentError(path, err)
	}

	var (
		out  = []Dependency{}
		errs error
	)
	addSpecs := func(section string, specs []string) {
		for _, spec := range specs {
			d, err := pep508(path, section, spec)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			out = append(out, d)
		}
	}
	addPoetry := func(section string, table map[string]any) {
		for _, name := range sortedKeys(table) {
			if strings.EqualFold(name, "python") {
				continue
			}
			version, ok := poetryVersion(table[name])
			if !ok {
				continue
			}
			out = append(out, Dependency{
				Section: section,
				PURL: purl.PackageURL{
					Type:    purl.TypePyPi,
					Name:    integrations.NormalizePkgName(name),
					Version: version,
				},
			})
		}
	}

	addSpecs("project", doc.Project.Dependencies)
	for _, extra := range sortedKeys(toAny(doc.Project.OptionalDependencies)) {
		addSpecs("optional:"+extra, doc.Project.OptionalDependencies[extra])
	}
	poetry := doc.Tool.Poetry
	addPoetry("poetry", poetry.Dependencies)
	addPoetry("poetry-dev", poetry.DevDependencies)
	for _, g := range sortedKeys(toAny(poetry.Group)) {
		addPoetry("group:"+g, poetry.Group[g].Dependencies)
	}
	return out, errs
}

// pep508 parses one dependency specifier. Direct references
// ("name @ https://...") keep the name without a version.
func pep508(path, section, spec string) (Dependency, error) {
	spec = strings.TrimSpace(spec)
	if strings.Contains(spec, "://") {
		name, _, _ := strings.Cut(spec, "@")
		spec = strings.TrimSpace(name)
	}
	m := requirementLine.FindStringSubmatch(spec)
	if m == nil {
		return Dependency{}, entryError(path, "%s: cannot parse dependency %q", section, spec)
	}
	var version string
	if m[3] == "==" || m[3] == "===" {
		version = strings.TrimSuffix(m[4], ".*")
	}
	return Dependency{
		Section: section,
		PURL: purl.PackageURL{
			Type:    purl.TypePyPi,
			Name:    integrations.NormalizePkgName(m[1]),
			Version: version,
		},
	}, nil
}

// poetryVersion reads a Poetry dependency value: a constraint string or
// a table with a version key. ok is false for path, git and url sources.
func poetryVersion(v any) (version string, ok bool) {
	switch v := v.(type) {
	case string:
		return pinned(v), true
	case map[string]any:
		for _, k := range []string{"path", "git", "url"} {
			if _, local := v[k]; local {
				return "", false
			}
		}
		s, _ := v["version"].(string)
		return pinned(s), true
	case []map[string]any:
		// Multiple-constraint dependencies list one table per marker.
		if len(v) > 0 {
			return poetryVersion(v[0])
		}
	}
	return "", true
}

func toAny[V any](m map[string]V) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type poetryLock struct {
	Packages []struct {
		Name     string `toml:"name"`
		Version  string `toml:"version"`
		Category string `toml:"category"`
		Source   struct {
			Type string `toml:"type"`
		} `toml:"source"`
	} `toml:"package"`
}

func parsePoetryLock(path, content string) ([]Dependency, error) {
	var lock poetryLock
	if _, err := toml.Decode(content, &lock); err != nil {
		return nil, documentError(path, err)
	}
	var (
		out  = []Dependency{}
		errs error
	)
	for i, p := range lock.Packages {
		if p.Name == "" {
			errs = multierr.Append(errs, entryError(path, "package %d: missing name", i))
			continue
		}
		switch p.Source.Type {
		case "directory", "file", "git", "url":
			continue
		}
		section := p.Category
		if section == "" {
			section = "package"
		}
		out = append(out, Dependency{
			Section: section,
			PURL: purl.PackageURL{
				Type:    purl.TypePyPi,
				Name:    integrations.NormalizePkgName(p.Name),
				Version: p.Version,
			},
		})
	}
	return out, errs
}
