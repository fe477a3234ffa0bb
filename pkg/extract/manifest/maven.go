package manifest

import (
	"encoding/xml"
	"strings"

	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/purl"
)

// POM reads Maven pom.xml files.
//
// Declared properties and the project's built-in properties
// (project.version, project.groupId, parent versions) are resolved to a
// fixed point and substituted into dependency coordinates. Dependencies
// without a version take it from dependencyManagement.
var POM = Format{Name: "maven", Parse: parsePOM}

func parsePOM(path, content string) ([]Dependency, error) {
	var pom pomProject
	if err := xml.Unmarshal([]byte(content), &pom); err != nil {
		return nil, documentError(path, err)
	}

	props := Resolve(pom.properties(), MavenRefs)
	managed := make(map[string]string)
	for _, d := range pom.Management {
		g, _ := props.Expand(strings.TrimSpace(d.GroupID))
		a, _ := props.Expand(strings.TrimSpace(d.ArtifactID))
		v, _ := props.Expand(strings.TrimSpace(d.Version))
		managed[g+":"+a] = v
	}

	var (
		out  []Dependency
		errs error
	)
	for i, d := range pom.Dependencies {
		group, gok := props.Expand(strings.TrimSpace(d.GroupID))
		artifact, aok := props.Expand(strings.TrimSpace(d.ArtifactID))
		version, vok := props.Expand(strings.TrimSpace(d.Version))
		if version == "" {
			version, vok = managed[group+":"+artifact], true
		}
		if !gok || !aok || !vok {
			errs = multierr.Append(errs, entryError(path, "dependency %d (%s:%s) has unresolved properties %v", i+1, group, artifact, props.Unresolved()))
		}
		if artifact == "" {
			errs = multierr.Append(errs, entryError(path, "dependency %d has no artifactId", i+1))
			continue
		}

		quals := map[string]string{"classifier": strings.TrimSpace(d.Classifier)}
		if t := strings.TrimSpace(d.Type); t != "" && t != "jar" {
			quals["type"] = t
		}
		section := strings.TrimSpace(d.Scope)
		if section == "" {
			section = "compile"
		}
		out = append(out, Dependency{
			Section: section,
			PURL: purl.PackageURL{
				Type:       purl.TypeMaven,
				Namespace:  group,
				Name:       artifact,
				Version:    version,
				Qualifiers: quals,
			},
		})
	}
	if out == nil {
		out = []Dependency{}
	}
	return out, errs
}

type pomProject struct {
	GroupID    string          `xml:"groupId"`
	ArtifactID string          `xml:"artifactId"`
	Version    string          `xml:"version"`
	Parent     pomParent       `xml:"parent"`
	Properties pomProperties   `xml:"properties"`
	Management []pomDependency `xml:"dependencyManagement>dependencies>dependency"`

	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomParent struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type pomProperties struct {
	Entries []pomProperty `xml:",any"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Type       string `xml:"type"`
	Classifier string `xml:"classifier"`
}

// properties returns the declared properties plus the built-ins a POM
// may reference. Declared properties win.
func (p *pomProject) properties() map[string]string {
	group := p.GroupID
	if group == "" {
		group = p.Parent.GroupID
	}
	version := p.Version
	if version == "" {
		version = p.Parent.Version
	}
	raw := map[string]string{
		"project.groupId":           group,
		"project.artifactId":        p.ArtifactID,
		"project.version":           version,
		"pom.groupId":               group,
		"pom.version":               version,
		"project.parent.groupId":    p.Parent.GroupID,
		"project.parent.artifactId": p.Parent.ArtifactID,
		"project.parent.version":    p.Parent.Version,
		"parent.version":            p.Parent.Version,
	}
	for k, v := range raw {
		if v == "" {
			delete(raw, k)
		} else {
			raw[k] = strings.TrimSpace(v)
		}
	}
	for _, e := range p.Properties.Entries {
		raw[e.XMLName.Local] = strings.TrimSpace(e.Value)
	}
	return raw
}
