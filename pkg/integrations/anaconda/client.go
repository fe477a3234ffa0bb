package anaconda

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

// DefaultChannel is used when a dependency names no channel.
const DefaultChannel = "conda-forge"

// PackageInfo holds metadata for one version of a conda package.
type PackageInfo struct {
	Channel string // Channel (owner) the package was looked up in
	Name    string // Package name
	Version string // Requested or latest version
	License string // License string as published (may be empty)
	SHA256  string // SHA-256 of the first file built for Version (may be empty)
	MD5     string // MD5 of the same file (may be empty)
}

// Enrichment converts the package metadata into component fields. The
// channel is reported as publisher.
func (pi *PackageInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Publisher: pi.Channel}
	if pi.License != "" {
		e.Licenses = []string{pi.License}
	}
	if pi.SHA256 != "" || pi.MD5 != "" {
		e.Hashes = make(map[string]string, 2)
		if pi.SHA256 != "" {
			e.Hashes["sha256"] = pi.SHA256
		}
		if pi.MD5 != "" {
			e.Hashes["md5"] = pi.MD5
		}
	}
	return e
}

// Client provides access to the anaconda.org package API.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an anaconda.org client with the given cache backend.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "anaconda", cacheTTL, nil),
		baseURL: "https://api.anaconda.org",
	}
}

// SetBaseURL points the client at another anaconda.org-compatible API.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchPackage retrieves metadata for a package in a channel. An empty
// channel means [DefaultChannel]; an empty version the package's latest.
func (c *Client) FetchPackage(ctx context.Context, channel, name, version string, refresh bool) (*PackageInfo, error) {
	if channel == "" {
		channel = DefaultChannel
	}
	name = strings.ToLower(strings.TrimSpace(name))
	version = strings.TrimLeft(strings.TrimSpace(version), "=")
	key := channel + "/" + name + "@" + version

	var info PackageInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, channel, name, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, channel, name, version string, info *PackageInfo) error {
	body, err := c.GetBytes(ctx, fmt.Sprintf("%s/package/%s/%s", c.baseURL, channel, name))
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: conda package %s/%s", err, channel, name)
		}
		return err
	}

	doc := gjson.ParseBytes(body)
	if version == "" {
		version = doc.Get("latest_version").String()
	}
	file := doc.Get(fmt.Sprintf(`files.#(version==%q)`, version))

	license := doc.Get("license").String()
	if l := file.Get("attrs.license").String(); l != "" {
		license = l
	}

	*info = PackageInfo{
		Channel: channel,
		Name:    name,
		Version: version,
		License: license,
		SHA256:  file.Get("sha256").String(),
		MD5:     file.Get("md5").String(),
	}
	return nil
}
