package goproxy

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
)

// ModuleInfo holds metadata for one version of a Go module.
//
// Dependencies include only direct dependencies; indirect dependencies (marked with "// indirect") are excluded.
// Some modules (pre-modules or minimal modules) may not have a go.mod file; Dependencies will be nil/empty.
//
// Zero values: All string fields are empty, Dependencies is nil.
// This struct is safe for concurrent reads after construction.
type ModuleInfo struct {
	Path         string   // Module path (e.g., "github.com/spf13/cobra", never empty in valid info)
	Version      string   // Requested or latest version (e.g., "v1.8.0", never empty in valid info)
	Dependencies []string // Direct dependency module paths (nil or empty if none or no go.mod)
	Sum          string   // Checksum database hash of the module zip ("h1:..."; may be empty)
}

// Enrichment reports the checksum database hash under the "h1" algorithm.
func (mi *ModuleInfo) Enrichment() component.Enrichment {
	var e component.Enrichment
	if h, ok := strings.CutPrefix(mi.Sum, "h1:"); ok && h != "" {
		e.Hashes = map[string]string{"h1": h}
	}
	return e
}

// Client provides access to the Go module proxy and checksum database.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL  string
	sumdbURL string
}

// NewClient creates a Go module proxy client with the given cache backend.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (nil disables caching)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:   integrations.NewClient(backend, "goproxy", cacheTTL, nil),
		baseURL:  "https://proxy.golang.org",
		sumdbURL: "https://sum.golang.org",
	}
}

// SetBaseURLs points the client at another proxy and checksum database.
func (c *Client) SetBaseURLs(proxy, sumdb string) {
	c.baseURL = strings.TrimSuffix(proxy, "/")
	c.sumdbURL = strings.TrimSuffix(sumdb, "/")
}

// FetchModule retrieves metadata for a Go module version. An empty version
// resolves the module's @latest version first.
//
// Module paths with uppercase letters are escaped per the Go module proxy protocol.
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// go.mod and checksum lookups are best effort: a failure leaves
// Dependencies or Sum empty. This is normal for pre-module packages.
//
// Returns:
//   - ModuleInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the module doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - Other errors for invalid module paths or JSON decoding failures
func (c *Client) FetchModule(ctx context.Context, mod, version string, refresh bool) (*ModuleInfo, error) {
	mod = strings.TrimSpace(mod)
	version = strings.TrimSpace(version)
	key := mod + "@" + version

	var info ModuleInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, mod, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, mod, version string, info *ModuleInfo) error {
	escaped, err := module.EscapePath(mod)
	if err != nil {
		return fmt.Errorf("go module %s: %w", mod, err)
	}

	if version == "" {
		if version, err = c.fetchLatest(ctx, mod, escaped); err != nil {
			return err
		}
	}
	ev, err := module.EscapeVersion(version)
	if err != nil {
		return fmt.Errorf("go module %s@%s: %w", mod, version, err)
	}

	deps, _ := c.fetchGoMod(ctx, escaped, ev)
	sum, _ := c.fetchSum(ctx, mod, escaped, version, ev)

	*info = ModuleInfo{
		Path:         mod,
		Version:      version,
		Dependencies: deps,
		Sum:          sum,
	}
	return nil
}

func (c *Client) fetchLatest(ctx context.Context, mod, escaped string) (string, error) {
	url := fmt.Sprintf("%s/%s/@latest", c.baseURL, escaped)

	var data latestResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", fmt.Errorf("%w: go module %s", err, mod)
		}
		return "", err
	}
	return data.Version, nil
}

func (c *Client) fetchGoMod(ctx context.Context, escaped, version string) ([]string, error) {
	url := fmt.Sprintf("%s/%s/@v/%s.mod", c.baseURL, escaped, version)

	body, err := c.GetBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	return parseGoMod(body)
}

// fetchSum reads the module zip hash from the checksum database lookup
// endpoint. The response starts with the record number, followed by go.sum
// lines for the zip and the go.mod file.
func (c *Client) fetchSum(ctx context.Context, mod, escaped, version, ev string) (string, error) {
	body, err := c.GetText(ctx, fmt.Sprintf("%s/lookup/%s@%s", c.sumdbURL, escaped, ev))
	if err != nil {
		return "", err
	}
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) == 3 && f[0] == mod && f[1] == version {
			return f[2], nil
		}
	}
	return "", sc.Err()
}

func parseGoMod(data []byte) ([]string, error) {
	f, err := modfile.ParseLax("go.mod", data, nil)
	if err != nil {
		return nil, err
	}
	var deps []string
	seen := make(map[string]bool)
	for _, r := range f.Require {
		if r.Indirect || seen[r.Mod.Path] {
			continue
		}
		seen[r.Mod.Path] = true
		deps = append(deps, r.Mod.Path)
	}
	return deps, nil
}

type latestResponse struct {
	Version string `json:"Version"`
	Time    string `json:"Time"`
}
