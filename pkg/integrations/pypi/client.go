package pypi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
)

var (
	depRE    = regexp.MustCompile(`^([a-zA-Z0-9_.-]+)`)
	markerRE = regexp.MustCompile(`;\s*(.+)`)
	skipRE   = regexp.MustCompile(`extra|dev|test`)
)

// PackageInfo holds metadata for one release of a Python package.
//
// Package names are normalized following PEP 503 (lowercase, underscores→hyphens).
// Dependencies list only runtime dependencies; extras, dev, and test deps are excluded.
//
// Zero values: All string fields are empty, Dependencies and Digests are nil.
// This struct is safe for concurrent reads after construction.
type PackageInfo struct {
	Name         string            // Normalized package name (e.g., "fastapi", never empty in valid info)
	Version      string            // Release version (e.g., "0.104.1", never empty in valid info)
	Dependencies []string          // Direct runtime dependencies, normalized names (nil or empty if none)
	Summary      string            // Short package description (may be empty)
	License      string            // License name or expression (may be empty)
	Author       string            // Author or maintainer name (may be empty)
	Digests      map[string]string // Digests of the release's source distribution, or its first file
}

// Enrichment converts the release metadata into component fields.
func (p *PackageInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Publisher: p.Author, Hashes: p.Digests}
	if p.License != "" {
		e.Licenses = []string{p.License}
	}
	return e
}

// Client provides access to the PyPI package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (nil for no caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi", cacheTTL, nil),
		baseURL: "https://pypi.org/pypi",
	}
}

// SetBaseURL points the client at another PyPI-compatible JSON API.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchPackage retrieves metadata for one release of a Python package.
// An empty version selects the latest release.
//
// The pkg parameter is normalized automatically (case-insensitive, underscores→hyphens).
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Returns:
//   - PackageInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the package or release doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - Other errors for JSON decoding failures
func (c *Client) FetchPackage(ctx context.Context, pkg, version string, refresh bool) (*PackageInfo, error) {
	pkg = integrations.NormalizePkgName(pkg)
	key := pkg
	if version != "" {
		key += "@" + version
	}

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
	url := fmt.Sprintf("%s/%s/json", c.baseURL, pkg)
	if version != "" {
		url = fmt.Sprintf("%s/%s/%s/json", c.baseURL, pkg, version)
	}

	var data apiResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s %s", err, pkg, version)
		}
		return err
	}

	license := data.Info.LicenseExpression
	if license == "" {
		license = extractLicenseType(data.Info.License, data.Info.Classifiers)
	}
	author := data.Info.Author
	if author == "" {
		author = data.Info.Maintainer
	}

	*info = PackageInfo{
		Name:         integrations.NormalizePkgName(data.Info.Name),
		Version:      data.Info.Version,
		Summary:      data.Info.Summary,
		License:      license,
		Author:       author,
		Dependencies: extractDeps(data.Info.RequiresDist),
		Digests:      pickDigests(data.URLs),
	}
	return nil
}

func extractDeps(requires []string) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, req := range requires {
		if m := markerRE.FindStringSubmatch(req); len(m) > 1 && skipRE.MatchString(m[1]) {
			continue
		}
		if m := depRE.FindStringSubmatch(req); len(m) > 1 {
			dep := integrations.NormalizePkgName(m[1])
			if !seen[dep] {
				seen[dep] = true
				deps = append(deps, dep)
			}
		}
	}
	return deps
}

// pickDigests prefers the source distribution's digests.
func pickDigests(files []apiFile) map[string]string {
	if len(files) == 0 {
		return nil
	}
	pick := files[0]
	for _, f := range files {
		if f.PackageType == "sdist" {
			pick = f
			break
		}
	}
	out := make(map[string]string, len(pick.Digests))
	for alg, d := range pick.Digests {
		if alg == "blake2b_256" {
			alg = "blake2b-256"
		}
		if d != "" {
			out[alg] = d
		}
	}
	return out
}

type apiResponse struct {
	Info apiInfo   `json:"info"`
	URLs []apiFile `json:"urls"`
}

type apiInfo struct {
	Name              string   `json:"name"`
	Version           string   `json:"version"`
	Summary           string   `json:"summary"`
	License           string   `json:"license"`
	LicenseExpression string   `json:"license_expression"`
	Classifiers       []string `json:"classifiers"`
	RequiresDist      []string `json:"requires_dist"`
	Author            string   `json:"author"`
	Maintainer        string   `json:"maintainer"`
}

type apiFile struct {
	PackageType string            `json:"packagetype"`
	Digests     map[string]string `json:"digests"`
}

// extractLicenseType extracts a short license name from PyPI data.
// It prefers the classifier (e.g., "License :: OSI Approved :: MIT License" -> "MIT License")
// and falls back to the license field if it's short enough.
func extractLicenseType(license string, classifiers []string) string {
	for _, c := range classifiers {
		if strings.HasPrefix(c, "License :: ") {
			parts := strings.Split(c, " :: ")
			if len(parts) >= 3 {
				return parts[len(parts)-1]
			}
		}
	}

	if license != "" && len(license) < 100 && !strings.Contains(license, "\n") {
		return strings.TrimSpace(license)
	}

	// Full license texts usually name the license on their first line.
	if license != "" {
		firstLine := strings.TrimSpace(strings.Split(license, "\n")[0])
		if len(firstLine) < 50 {
			return firstLine
		}
	}
	return ""
}
