package npm

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
)

// PackageInfo holds metadata for one version of an npm package.
type PackageInfo struct {
	Name         string
	Version      string
	Dependencies []string
	Repository   string
	Description  string
	License      string
	Author       string
	SHA1         string // dist.shasum
	SHA512       string // dist.integrity, hex encoded
}

// Enrichment converts the version metadata into component fields.
func (p *PackageInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Publisher: p.Author}
	if p.License != "" {
		e.Licenses = []string{p.License}
	}
	if p.SHA1 != "" || p.SHA512 != "" {
		e.Hashes = make(map[string]string, 2)
		if p.SHA1 != "" {
			e.Hashes["sha1"] = p.SHA1
		}
		if p.SHA512 != "" {
			e.Hashes["sha512"] = p.SHA512
		}
	}
	return e
}

type Client struct {
	*integrations.Client
	baseURL string
}

func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "npm", cacheTTL, nil),
		baseURL: "https://registry.npmjs.org",
	}
}

// SetBaseURL points the client at another npm-compatible registry.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchPackage retrieves metadata for pkg at version. Version may be a
// range as written in package.json ("^4.18.2"); its lower bound is used
// when the registry knows it, the latest version otherwise.
func (c *Client) FetchPackage(ctx context.Context, pkg, version string, refresh bool) (*PackageInfo, error) {
	pkg = strings.ToLower(strings.TrimSpace(pkg))
	version = cleanVersion(version)
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
	body, err := c.GetBytes(ctx, c.baseURL+"/"+pkg)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}
	if !gjson.ValidBytes(body) {
		return fmt.Errorf("npm package %s: invalid JSON", pkg)
	}
	doc := gjson.ParseBytes(body)

	v := doc.Get("versions." + escape(version))
	if version == "" || !v.Exists() {
		version = doc.Get(`dist-tags.latest`).String()
		v = doc.Get("versions." + escape(version))
	}
	if !v.Exists() {
		return fmt.Errorf("%w: npm package %s has no version %s", integrations.ErrNotFound, pkg, version)
	}

	var deps []string
	v.Get("dependencies").ForEach(func(k, _ gjson.Result) bool {
		deps = append(deps, k.String())
		return true
	})

	*info = PackageInfo{
		Name:         doc.Get("name").String(),
		Version:      version,
		Description:  v.Get("description").String(),
		License:      field(v.Get("license"), "type"),
		Author:       field(v.Get("author"), "name"),
		Repository:   integrations.NormalizeRepoURL(field(v.Get("repository"), "url")),
		Dependencies: deps,
		SHA1:         v.Get("dist.shasum").String(),
		SHA512:       integrityHex(v.Get("dist.integrity").String(), "sha512"),
	}
	return nil
}

// field reads values that are either a string or an object holding the
// string under key.
func field(r gjson.Result, key string) string {
	if r.IsObject() {
		return r.Get(key).String()
	}
	return r.String()
}

// integrityHex decodes the Subresource Integrity entry for alg.
func integrityHex(sri, alg string) string {
	for _, part := range strings.Fields(sri) {
		b64, ok := strings.CutPrefix(part, alg+"-")
		if !ok {
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return ""
		}
		return hex.EncodeToString(raw)
	}
	return ""
}

var pathEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`, "|", `\|`, "#", `\#`, "@", `\@`)

func escape(s string) string { return pathEscaper.Replace(s) }

// cleanVersion reduces a semver range to its first concrete version.
func cleanVersion(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, " |"); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimLeft(v, "^~>=<v")
	if v == "*" || v == "latest" || strings.ContainsAny(v, "xX*") {
		return ""
	}
	return v
}
