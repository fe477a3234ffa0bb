package manifest

import (
	"encoding/xml"
	"strings"

	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/purl"
)

// ProjectFile reads MSBuild project files (.csproj, .fsproj, .vbproj).
// PackageReference versions may be given as attribute or child element
// and may reference $(Property) values from any PropertyGroup.
var ProjectFile = Format{Name: "nuget", Parse: parseProjectFile}

type msbuildProject struct {
	PropertyGroups []msbuildPropertyGroup `xml:"PropertyGroup"`
	ItemGroups     []msbuildItemGroup     `xml:"ItemGroup"`
}

type msbuildPropertyGroup struct {
	Properties []pomProperty `xml:",any"`
}

type msbuildItemGroup struct {
	References []msbuildReference `xml:"PackageReference"`
}

type msbuildReference struct {
	Include      string `xml:"Include,attr"`
	Update       string `xml:"Update,attr"`
	VersionAttr  string `xml:"Version,attr"`
	VersionElem  string `xml:"Version"`
	PrivateAsset string `xml:"PrivateAssets,attr"`
}

func parseProjectFile(path, content string) ([]Dependency, error) {
	var proj msbuildProject
	if err := xml.Unmarshal([]byte(content), &proj); err != nil {
		return nil, documentError(path, err)
	}

	raw := make(map[string]string)
	for _, g := range proj.PropertyGroups {
		for _, p := range g.Properties {
			raw[p.XMLName.Local] = strings.TrimSpace(p.Value)
		}
	}
	props := Resolve(raw, MSBuildRefs)

	var (
		out  []Dependency
		errs error
	)
	for _, g := range proj.ItemGroups {
		for _, r := range g.References {
			id := strings.TrimSpace(r.Include)
			if id == "" {
				// Update items modify references declared elsewhere.
				if r.Update == "" {
					errs = multierr.Append(errs, entryError(path, "PackageReference without Include"))
				}
				continue
			}
			v := strings.TrimSpace(r.VersionAttr)
			if v == "" {
				v = strings.TrimSpace(r.VersionElem)
			}
			v, ok := props.Expand(v)
			if !ok {
				errs = multierr.Append(errs, entryError(path, "package %s has unresolved properties %v", id, props.Unresolved()))
			}
			out = append(out, Dependency{
				Section: "PackageReference",
				PURL: purl.PackageURL{
					Type:    purl.TypeNuget,
					Name:    id,
					Version: strings.Trim(v, "[]() "),
				},
			})
		}
	}
	if out == nil {
		out = []Dependency{}
	}
	return out, errs
}
