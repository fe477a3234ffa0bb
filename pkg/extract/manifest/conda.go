package manifest

import (
	"regexp"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/integrations/anaconda"
	"github.com/matzehuels/stackscan/pkg/purl"
)

// CondaEnvironment reads conda environment.yml files.
//
// The first channel other than "defaults" becomes the channel qualifier
// of every conda package; a "channel::name" spec overrides it. The
// nested pip list is flattened into its own "pip" section of PyPI
// packages.
var CondaEnvironment = Format{Name: "conda", Parse: parseCondaEnvironment}

// condaSpec matches "[channel::]name[op version[=build]]" where op is a
// comparison or plain whitespace ("numpy 1.26.*").
var condaSpec = regexp.MustCompile(`^(?:([A-Za-z0-9_.-]+)::)?([A-Za-z0-9_.-]+)(?:(?:\s*(==|=|>=|<=|>|<)\s*|\s+)([^\s=,]+)(?:=\S+)?)?`)

func parseCondaEnvironment(path, content string) ([]Dependency, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		return nil, documentError(path, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		if root.Kind == 0 {
			return []Dependency{}, nil
		}
		return nil, entryError(path, "environment is not a mapping")
	}

	channel := anaconda.DefaultChannel
	if ch := mappingValue(root, "channels"); ch != nil && ch.Kind == yaml.SequenceNode {
		for _, c := range ch.Content {
			if c.Kind == yaml.ScalarNode && c.Value != "defaults" && c.Value != "" {
				channel = c.Value
				break
			}
		}
	}

	deps := mappingValue(root, "dependencies")
	if deps == nil {
		return []Dependency{}, nil
	}
	if deps.Kind != yaml.SequenceNode {
		return nil, entryError(path, "line %d: dependencies is not a list", deps.Line)
	}

	var (
		out  = []Dependency{}
		errs error
	)
	for _, n := range deps.Content {
		switch n.Kind {
		case yaml.ScalarNode:
			d, err := condaDependency(path, n, channel)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			out = append(out, d)
		case yaml.MappingNode:
			for i := 0; i+1 < len(n.Content); i += 2 {
				section, list := n.Content[i].Value, n.Content[i+1]
				if list.Kind != yaml.SequenceNode {
					errs = multierr.Append(errs, entryError(path, "line %d: %s is not a list", list.Line, section))
					continue
				}
				for _, item := range list.Content {
					d, err := sectionDependency(path, section, item)
					if err != nil {
						errs = multierr.Append(errs, err)
						continue
					}
					out = append(out, d)
				}
			}
		default:
			errs = multierr.Append(errs, entryError(path, "line %d: unexpected dependency entry", n.Line))
		}
	}
	return out, errs
}

func condaDependency(path string, n *yaml.Node, channel string) (Dependency, error) {
	m := condaSpec.FindStringSubmatch(strings.TrimSpace(n.Value))
	if m == nil {
		return Dependency{}, entryError(path, "line %d: cannot parse package spec %q", n.Line, n.Value)
	}
	if m[1] != "" {
		channel = m[1]
	}
	return Dependency{
		Section: "dependencies",
		PURL: purl.PackageURL{
			Type:       purl.TypeConda,
			Name:       m[2],
			Version:    condaVersion(m[4]),
			Qualifiers: map[string]string{"channel": channel},
		},
	}, nil
}

// sectionDependency reads an entry of a nested list. Only pip lists
// name packages of a known ecosystem.
func sectionDependency(path, section string, n *yaml.Node) (Dependency, error) {
	if n.Kind != yaml.ScalarNode {
		return Dependency{}, entryError(path, "line %d: unexpected %s entry", n.Line, section)
	}
	if section != "pip" {
		return Dependency{
			Section: section,
			PURL:    purl.PackageURL{Type: purl.TypeGeneric, Name: strings.TrimSpace(n.Value)},
		}, nil
	}
	m := requirementLine.FindStringSubmatch(strings.TrimSpace(n.Value))
	if m == nil {
		return Dependency{}, entryError(path, "line %d: cannot parse pip requirement %q", n.Line, n.Value)
	}
	var version string
	if m[3] == "==" || m[3] == "===" {
		version = m[4]
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

// condaVersion drops wildcard suffixes ("1.21.*" is "1.21").
func condaVersion(v string) string {
	v = strings.TrimSuffix(v, "*")
	return strings.TrimSuffix(v, ".")
}

func mappingValue(n *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return n.Content[i+1]
		}
	}
	return nil
}
