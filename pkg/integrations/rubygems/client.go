package rubygems

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
)

// GemInfo holds metadata for one version of a Ruby gem.
//
// Gem names are normalized to lowercase.
// Dependencies include only runtime dependencies; development dependencies are excluded.
//
// Zero values: All string fields are empty, Dependencies and Licenses are nil.
// This struct is safe for concurrent reads after construction.
type GemInfo struct {
	Name          string   // Gem name, normalized lowercase (e.g., "rails", never empty in valid info)
	Version       string   // Requested or current version (e.g., "7.1.2", never empty in valid info)
	Dependencies  []string // Runtime dependency gem names, normalized (nil or empty if none)
	SourceCodeURI string   // Source code repository URL (may be empty)
	Description   string   // Gem description/info (may be empty)
	Licenses      []string // License names as published (may be empty)
	Authors       string   // Author name(s) (may be empty)
	SHA256        string   // SHA-256 of the .gem file (may be empty)
}

// Enrichment converts the gem metadata into component fields.
func (gi *GemInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Publisher: gi.Authors, Licenses: gi.Licenses}
	if gi.SHA256 != "" {
		e.Hashes = map[string]string{"sha256": gi.SHA256}
	}
	return e
}

// Client provides access to the RubyGems package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a RubyGems client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (nil disables caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "rubygems", cacheTTL, nil),
		baseURL: "https://rubygems.org/api",
	}
}

// SetBaseURL points the client at another RubyGems-compatible API root
// (the path that contains v1/ and v2/).
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchGem retrieves metadata for a gem version from RubyGems. An empty
// version selects the gem's current release.
//
// The gem parameter is normalized to lowercase with whitespace trimmed.
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Returns:
//   - GemInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the gem or version doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - Other errors for JSON decoding failures
func (c *Client) FetchGem(ctx context.Context, gem, version string, refresh bool) (*GemInfo, error) {
	gem = strings.ToLower(strings.TrimSpace(gem))
	version = strings.TrimLeft(strings.TrimSpace(version), "~>= ")
	key := gem + "@" + version

	var info GemInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, gem, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, gem, version string, info *GemInfo) error {
	url := fmt.Sprintf("%s/v1/gems/%s.json", c.baseURL, gem)
	if version != "" {
		url = fmt.Sprintf("%s/v2/rubygems/%s/versions/%s.json", c.baseURL, gem, integrations.PathEscape(version))
	}

	var data gemResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: gem %s %s", err, gem, version)
		}
		return err
	}

	*info = GemInfo{
		Name:          strings.ToLower(data.Name),
		Version:       data.Version,
		Description:   data.Info,
		Licenses:      data.Licenses,
		SourceCodeURI: data.SourceCodeURI,
		Authors:       data.Authors,
		SHA256:        data.SHA,
		Dependencies:  runtimeDeps(data.Dependencies.Runtime),
	}
	if info.Name == "" {
		info.Name = gem
	}
	return nil
}

func runtimeDeps(deps []dependency) []string {
	seen := make(map[string]bool)
	var result []string
	for _, d := range deps {
		name := strings.ToLower(strings.TrimSpace(d.Name))
		if name != "" && !seen[name] {
			seen[name] = true
			result = append(result, name)
		}
	}
	return result
}

type gemResponse struct {
	Name          string   `json:"name"`
	Version       string   `json:"version"`
	Info          string   `json:"info"`
	Licenses      []string `json:"licenses"`
	SourceCodeURI string   `json:"source_code_uri"`
	Authors       string   `json:"authors"`
	SHA           string   `json:"sha"`
	Dependencies  struct {
		Runtime []dependency `json:"runtime"`
	} `json:"dependencies"`
}

type dependency struct {
	Name string `json:"name"`
}
