package nuget

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
)

// PackageInfo holds metadata for one version of a NuGet package, read from
// its .nuspec.
type PackageInfo struct {
	ID           string   // Package id as published (e.g., "Newtonsoft.Json")
	Version      string   // Requested or latest version
	Dependencies []string // Dependency ids across all target framework groups
	Authors      string   // Comma-separated authors (may be empty)
	Copyright    string   // Copyright notice (may be empty)
	License      string   // License expression or file name (may be empty)
	LicenseURL   string   // Deprecated licenseUrl element (may be empty)
	SHA512       string   // Hex SHA-512 of the .nupkg from the catalog (may be empty)
}

// Enrichment converts the nuspec metadata into component fields. The
// license URL is used only when no license expression is present.
func (pi *PackageInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Publisher: pi.Authors, Copyright: pi.Copyright}
	switch {
	case pi.License != "":
		e.Licenses = []string{pi.License}
	case pi.LicenseURL != "":
		e.Licenses = []string{pi.LicenseURL}
	}
	if pi.SHA512 != "" {
		e.Hashes = map[string]string{"sha512": pi.SHA512}
	}
	return e
}

// Client provides access to the NuGet v3 flat container and registration
// resources.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	flatURL         string
	registrationURL string
}

// NewClient creates a NuGet client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:          integrations.NewClient(backend, "nuget", cacheTTL, nil),
		flatURL:         "https://api.nuget.org/v3-flatcontainer",
		registrationURL: "https://api.nuget.org/v3/registration5-semver1",
	}
}

// SetBaseURLs points the client at another flat container and
// registration base.
func (c *Client) SetBaseURLs(flat, registration string) {
	c.flatURL = strings.TrimSuffix(flat, "/")
	c.registrationURL = strings.TrimSuffix(registration, "/")
}

// FetchPackage retrieves the nuspec of a package version. An empty version
// selects the last version listed by the flat container. Ids and versions
// are case-insensitive.
//
// The catalog hash lookup is best effort; failures leave SHA512 empty.
func (c *Client) FetchPackage(ctx context.Context, id, version string, refresh bool) (*PackageInfo, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	version = strings.ToLower(strings.Trim(strings.TrimSpace(version), "[]()"))
	key := id + "@" + version

	var info PackageInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, id, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, id, version string, info *PackageInfo) error {
	if version == "" {
		body, err := c.GetBytes(ctx, fmt.Sprintf("%s/%s/index.json", c.flatURL, id))
		if err != nil {
			return notFound(err, id)
		}
		versions := gjson.GetBytes(body, "versions").Array()
		if len(versions) == 0 {
			return fmt.Errorf("%w: nuget package %s has no versions", integrations.ErrNotFound, id)
		}
		version = strings.ToLower(versions[len(versions)-1].String())
	}

	body, err := c.GetBytes(ctx, fmt.Sprintf("%s/%s/%s/%s.nuspec", c.flatURL, id, version, id))
	if err != nil {
		return notFound(err, id+" "+version)
	}
	var spec nuspec
	if err := xml.Unmarshal(body, &spec); err != nil {
		return fmt.Errorf("decode nuspec %s %s: %w", id, version, err)
	}
	m := spec.Metadata

	*info = PackageInfo{
		ID:         m.ID,
		Version:    m.Version,
		Authors:    strings.TrimSpace(m.Authors),
		Copyright:  strings.TrimSpace(m.Copyright),
		License:    strings.TrimSpace(m.License),
		LicenseURL: strings.TrimSpace(m.LicenseURL),
	}
	if info.Version == "" {
		info.Version = version
	}
	seen := make(map[string]bool)
	for _, d := range m.Dependencies.All() {
		if lid := strings.ToLower(d); d != "" && !seen[lid] {
			seen[lid] = true
			info.Dependencies = append(info.Dependencies, d)
		}
	}
	info.SHA512, _ = c.fetchHash(ctx, id, version)
	return nil
}

// fetchHash follows the registration leaf to its catalog entry, which
// carries the base64 package hash.
func (c *Client) fetchHash(ctx context.Context, id, version string) (string, error) {
	leaf, err := c.GetBytes(ctx, fmt.Sprintf("%s/%s/%s.json", c.registrationURL, id, version))
	if err != nil {
		return "", err
	}
	entry := gjson.GetBytes(leaf, "catalogEntry").String()
	if entry == "" {
		return "", nil
	}
	body, err := c.GetBytes(ctx, entry)
	if err != nil {
		return "", err
	}
	if !strings.EqualFold(gjson.GetBytes(body, "packageHashAlgorithm").String(), "SHA512") {
		return "", nil
	}
	raw, err := base64.StdEncoding.DecodeString(gjson.GetBytes(body, "packageHash").String())
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(raw), nil
}

func notFound(err error, what string) error {
	if errors.Is(err, integrations.ErrNotFound) {
		return fmt.Errorf("%w: nuget package %s", err, what)
	}
	return err
}

type nuspec struct {
	Metadata struct {
		ID           string             `xml:"id"`
		Version      string             `xml:"version"`
		Authors      string             `xml:"authors"`
		Copyright    string             `xml:"copyright"`
		License      string             `xml:"license"`
		LicenseURL   string             `xml:"licenseUrl"`
		Dependencies nuspecDependencies `xml:"dependencies"`
	} `xml:"metadata"`
}

// nuspecDependencies holds both the flat legacy list and per-framework groups.
type nuspecDependencies struct {
	Flat   []nuspecDependency `xml:"dependency"`
	Groups []struct {
		Deps []nuspecDependency `xml:"dependency"`
	} `xml:"group"`
}

type nuspecDependency struct {
	ID string `xml:"id,attr"`
}

// All returns every dependency id in document order.
func (d nuspecDependencies) All() []string {
	var out []string
	for _, dep := range d.Flat {
		out = append(out, dep.ID)
	}
	for _, g := range d.Groups {
		for _, dep := range g.Deps {
			out = append(out, dep.ID)
		}
	}
	return out
}
