package packagist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
)

// PackageInfo holds metadata for one version of a PHP package.
//
// Package names follow Composer conventions (vendor/package format).
// Dependencies exclude PHP, extensions (ext-*), libraries (lib-*), and Composer platform packages.
//
// Zero values: All string fields are empty, Dependencies and Licenses are nil.
// This struct is safe for concurrent reads after construction.
type PackageInfo struct {
	Name         string   // Package name (e.g., "symfony/console", never empty in valid info)
	Version      string   // Matched or latest stable version (e.g., "v6.3.0", never empty in valid info)
	Dependencies []string // Composer require dependencies, filtered and sorted (nil or empty if none)
	Repository   string   // Normalized repository URL (empty if not provided)
	Description  string   // Package description (may be empty)
	Licenses     []string // License identifiers (may be empty)
	Author       string   // First author name (may be empty)
	SHA1         string   // Dist archive shasum (often empty on Packagist)
}

// Enrichment converts the version metadata into component fields.
func (pi *PackageInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Publisher: pi.Author, Licenses: pi.Licenses}
	if pi.SHA1 != "" {
		e.Hashes = map[string]string{"sha1": pi.SHA1}
	}
	return e
}

// Client provides access to the Packagist package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a Packagist client with the given cache backend.
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "packagist", cacheTTL, nil),
		baseURL: "https://repo.packagist.org",
	}
}

// SetBaseURL points the client at another Composer v2 repository.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchPackage retrieves metadata for a PHP package from Packagist.
//
// The pkg parameter must be in "vendor/package" format (e.g., "symfony/console").
// Package name is normalized to lowercase with whitespace trimmed.
//
// Version selection: the release equal to version (ignoring a "v" prefix and
// constraint operators) wins. Otherwise the latest stable version is
// selected, skipping dev versions; if none exists, the first listed version.
//
// Returns:
//   - PackageInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the package doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - Other errors for JSON decoding failures or missing version data
func (c *Client) FetchPackage(ctx context.Context, pkg, version string, refresh bool) (*PackageInfo, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))
	version = strings.TrimLeft(strings.TrimSpace(version), "^~=>< ")
	key := pkg + "@" + version

	var info PackageInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, pkg, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, pkg, version string, info *PackageInfo) error {
	var data p2Response
	if err := c.Get(ctx, fmt.Sprintf("%s/p2/%s.json", c.baseURL, pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: packagist package %s", err, pkg)
		}
		return err
	}

	versions, err := expand(data.Packages[pkg])
	if err != nil {
		return fmt.Errorf("packagist package %s: %w", pkg, err)
	}
	if len(versions) == 0 {
		return fmt.Errorf("%w: no versions found for %s", integrations.ErrNotFound, pkg)
	}

	v, ok := find(versions, version)
	if !ok {
		v = latestStable(versions)
	}

	var author string
	if len(v.Authors) > 0 {
		author = strings.TrimSpace(v.Authors[0].Name)
	}

	*info = PackageInfo{
		Name:         v.Name,
		Version:      v.Version,
		Description:  v.Description,
		Licenses:     v.License,
		Author:       author,
		Repository:   integrations.NormalizeRepoURL(v.Source.URL),
		SHA1:         v.Dist.Shasum,
		Dependencies: filterDeps(v.Require),
	}
	if info.Name == "" {
		info.Name = pkg
	}
	return nil
}

// expand undoes Composer v2 metadata minification: each version repeats
// only the fields that differ from its predecessor, and "__unset" removes
// an inherited field.
func expand(raw []map[string]json.RawMessage) ([]p2Version, error) {
	out := make([]p2Version, 0, len(raw))
	cur := map[string]json.RawMessage{}
	for _, entry := range raw {
		next := make(map[string]json.RawMessage, len(cur))
		for k, v := range cur {
			next[k] = v
		}
		for k, v := range entry {
			if string(v) == `"__unset"` {
				delete(next, k)
				continue
			}
			next[k] = v
		}
		cur = next

		b, err := json.Marshal(cur)
		if err != nil {
			return nil, err
		}
		var v p2Version
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func find(versions []p2Version, version string) (p2Version, bool) {
	if version == "" {
		return p2Version{}, false
	}
	want := strings.TrimPrefix(strings.ToLower(version), "v")
	for _, v := range versions {
		if strings.TrimPrefix(strings.ToLower(v.Version), "v") == want {
			return v, true
		}
	}
	return p2Version{}, false
}

func filterDeps(require map[string]string) []string {
	var deps []string
	for name := range require {
		ln := strings.ToLower(name)
		switch {
		case ln == "php" || ln == "composer-plugin-api" || ln == "composer-runtime-api":
			continue
		case strings.HasPrefix(ln, "ext-") || strings.HasPrefix(ln, "lib-"):
			continue
		case !strings.Contains(ln, "/"):
			continue
		}
		deps = append(deps, ln)
	}
	slices.Sort(deps)
	return deps
}

func latestStable(versions []p2Version) p2Version {
	for _, v := range versions {
		lv := strings.ToLower(v.Version)
		if strings.Contains(lv, "dev") {
			continue
		}
		if strings.Contains(strings.TrimPrefix(lv, "v"), ".") {
			return v
		}
	}
	return versions[0]
}

type p2Response struct {
	Packages map[string][]map[string]json.RawMessage `json:"packages"`
}

type p2Version struct {
	Name        string
	Version     string
	Description string
	License     []string
	Require     map[string]string
	Source      struct {
		URL string `json:"url"`
	}
	Dist struct {
		Shasum string `json:"shasum"`
	}
	Authors []struct {
		Name string `json:"name"`
	}
}

// UnmarshalJSON tolerates a string license and a require section that is
// an empty list or holds non-string constraints.
func (v *p2Version) UnmarshalJSON(b []byte) error {
	type raw struct {
		Name        string          `json:"name"`
		Version     string          `json:"version"`
		Description string          `json:"description"`
		License     json.RawMessage `json:"license"`
		Require     json.RawMessage `json:"require"`
		Source      struct {
			URL string `json:"url"`
		} `json:"source"`
		Dist struct {
			Shasum string `json:"shasum"`
		} `json:"dist"`
		Authors []struct {
			Name string `json:"name"`
		} `json:"authors"`
	}

	var r raw
	if err := json.Unmarshal(b, &r); err != nil {
		return err
	}

	v.Name = r.Name
	v.Version = r.Version
	v.Description = r.Description
	v.Source = r.Source
	v.Dist = r.Dist
	v.Authors = r.Authors

	if len(r.License) > 0 && string(r.License) != "null" {
		if err := json.Unmarshal(r.License, &v.License); err != nil {
			var single string
			if json.Unmarshal(r.License, &single) == nil && single != "" {
				v.License = []string{single}
			}
		}
	}

	if len(r.Require) > 0 && string(r.Require) != "null" {
		var anyObj map[string]any
		if json.Unmarshal(r.Require, &anyObj) == nil {
			v.Require = make(map[string]string, len(anyObj))
			for k, val := range anyObj {
				s, _ := val.(string)
				v.Require[k] = s
			}
		}
	}
	return nil
}
