package crates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
)

// CrateInfo holds metadata for one version of a Rust crate.
//
// Dependencies include only "normal" (non-dev, non-optional) dependencies.
//
// Zero values: All string fields are empty, Dependencies is nil.
// This struct is safe for concurrent reads after construction.
type CrateInfo struct {
	Name         string   // Crate name (e.g., "serde", never empty in valid info)
	Version      string   // Requested or max version (e.g., "1.0.193", never empty in valid info)
	Dependencies []string // Normal dependency crate names (nil or empty if none)
	Description  string   // Crate description (may be empty)
	License      string   // License expression (may be empty or "MIT OR Apache-2.0")
	Publisher    string   // Name or login of the publishing user (may be empty)
	Checksum     string   // SHA-256 of the .crate file (may be empty)
}

// Enrichment converts the version metadata into component fields. License
// expressions are split into their operands.
func (ci *CrateInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Publisher: ci.Publisher, Licenses: splitExpression(ci.License)}
	if ci.Checksum != "" {
		e.Hashes = map[string]string{"sha256": ci.Checksum}
	}
	return e
}

// Client provides access to the crates.io package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
//
// Note: crates.io requires a User-Agent header; this client sets one automatically.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a crates.io client with the given cache backend.
//
// The client includes a User-Agent header as required by crates.io API policy.
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	headers := map[string]string{
		"User-Agent": "stackscan/1.0 (https://github.com/matzehuels/stackscan)",
	}
	return &Client{
		Client:  integrations.NewClient(backend, "crates", cacheTTL, headers),
		baseURL: "https://crates.io/api/v1",
	}
}

// SetBaseURL points the client at another crates.io-compatible API.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchCrate retrieves metadata for a crate version. An empty version
// selects the crate's max_version.
//
// The crate parameter is case-sensitive and must match the published crate name exactly.
// If refresh is true, the cache is bypassed and a fresh API call is made.
// Dependency fetching failures are ignored; Dependencies will be nil.
//
// Returns:
//   - CrateInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the crate or version doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
func (c *Client) FetchCrate(ctx context.Context, crate, version string, refresh bool) (*CrateInfo, error) {
	version = strings.TrimLeft(strings.TrimSpace(version), "^~=")
	key := crate + "@" + version

	var info CrateInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, crate, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, crate, version string, info *CrateInfo) error {
	if version == "" {
		body, err := c.GetBytes(ctx, fmt.Sprintf("%s/crates/%s", c.baseURL, crate))
		if err != nil {
			return notFound(err, crate)
		}
		version = gjson.GetBytes(body, "crate.max_version").String()
	}

	body, err := c.GetBytes(ctx, fmt.Sprintf("%s/crates/%s/%s", c.baseURL, crate, version))
	if err != nil {
		return notFound(err, crate+" "+version)
	}
	v := gjson.GetBytes(body, "version")
	if !v.Exists() {
		return fmt.Errorf("%w: crate %s %s", integrations.ErrNotFound, crate, version)
	}

	publisher := v.Get("published_by.name").String()
	if publisher == "" {
		publisher = v.Get("published_by.login").String()
	}
	deps, _ := c.fetchDeps(ctx, crate, version)

	*info = CrateInfo{
		Name:         v.Get("crate").String(),
		Version:      v.Get("num").String(),
		Description:  v.Get("description").String(),
		License:      v.Get("license").String(),
		Publisher:    publisher,
		Checksum:     v.Get("checksum").String(),
		Dependencies: deps,
	}
	if info.Name == "" {
		info.Name = crate
	}
	return nil
}

func (c *Client) fetchDeps(ctx context.Context, crate, version string) ([]string, error) {
	body, err := c.GetBytes(ctx, fmt.Sprintf("%s/crates/%s/%s/dependencies", c.baseURL, crate, version))
	if err != nil {
		return nil, err
	}
	var deps []string
	for _, d := range gjson.GetBytes(body, `dependencies.#(kind=="normal")#`).Array() {
		if !d.Get("optional").Bool() {
			deps = append(deps, d.Get("crate_id").String())
		}
	}
	return deps, nil
}

func notFound(err error, what string) error {
	if errors.Is(err, integrations.ErrNotFound) {
		return fmt.Errorf("%w: crate %s", err, what)
	}
	return err
}

// splitExpression splits "MIT OR Apache-2.0" and the legacy "MIT/Apache-2.0".
func splitExpression(expr string) []string {
	var out []string
	for _, f := range strings.FieldsFunc(expr, func(r rune) bool { return r == '/' || r == '(' || r == ')' }) {
		for _, part := range strings.Fields(f) {
			switch part {
			case "OR", "AND", "WITH":
				continue
			}
			out = append(out, part)
		}
	}
	return out
}
