// Package purl builds package URLs for extracted dependencies.
package purl

import (
	"strings"

	"github.com/package-url/packageurl-go"

	"github.com/matzehuels/stackscan/pkg/errors"
)

// Package URL types used by the manifest extractors.
const (
	TypeMaven    = "maven"
	TypeNuget    = "nuget"
	TypePyPi     = "pypi"
	TypeConda    = "conda"
	TypeConan    = "conan"
	TypeCargo    = "cargo"
	TypeNPM      = "npm"
	TypeGolang   = "golang"
	TypeGem      = "gem"
	TypeComposer = "composer"
	TypeGeneric  = "generic"
)

// PackageURL holds the six package URL components.
type PackageURL struct {
	Type       string
	Namespace  string
	Name       string
	Version    string
	Qualifiers map[string]string
	Subpath    string
}

// Build validates p and renders it. A missing type or name is an
// identity error (code IDENTITY); nothing else is rejected.
func Build(p PackageURL) (string, error) {
	if strings.TrimSpace(p.Type) == "" {
		return "", errors.New(errors.ErrCodeIdentity, "package URL for %q has no type", p.Name)
	}
	if strings.TrimSpace(p.Name) == "" {
		return "", errors.New(errors.ErrCodeIdentity, "package URL of type %q has no name", p.Type)
	}

	quals := make(map[string]string, len(p.Qualifiers))
	for k, v := range p.Qualifiers {
		// Empty qualifier values are invalid in a package URL.
		if v != "" {
			quals[k] = v
		}
	}
	u := packageurl.NewPackageURL(
		strings.ToLower(p.Type),
		p.Namespace,
		p.Name,
		p.Version,
		packageurl.QualifiersFromMap(quals),
		p.Subpath,
	)
	return u.ToString(), nil
}

// Parse decodes a package URL string.
func Parse(s string) (PackageURL, error) {
	u, err := packageurl.FromString(s)
	if err != nil {
		return PackageURL{}, errors.Wrap(errors.ErrCodeIdentity, err, "decode package URL %q", s)
	}
	return PackageURL{
		Type:       u.Type,
		Namespace:  u.Namespace,
		Name:       u.Name,
		Version:    u.Version,
		Qualifiers: u.Qualifiers.Map(),
		Subpath:    u.Subpath,
	}, nil
}
