package github

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

var repoURLPattern = regexp.MustCompile(`https?://github\.com/([^/]+)/([^/]+?)(?:\.git)?(?:[/?#]|$)`)

// RepoInfo is the license and ownership of a GitHub repository.
type RepoInfo struct {
	Owner   string // Owner login (e.g., "spf13")
	Name    string // Repository name (e.g., "cobra")
	License string // SPDX identifier, or the license name when GitHub reports NOASSERTION
}

// Enrichment reports the repository license and owner.
func (ri *RepoInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Publisher: ri.Owner}
	if ri.License != "" {
		e.Licenses = []string{ri.License}
	}
	return e
}

// Client provides access to the GitHub API for repository license lookups.
// It handles HTTP requests with caching, automatic retries, and optional authentication.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitHub API client with optional authentication.
// Pass an empty string for token to use unauthenticated requests (lower rate limits).
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}

	return &Client{
		Client:  integrations.NewClient(backend, "github", cacheTTL, headers),
		baseURL: "https://api.github.com",
	}
}

// SetBaseURL points the client at another GitHub API root.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchRepo retrieves the license and owner of a repository.
// If refresh is true, cached data is bypassed.
func (c *Client) FetchRepo(ctx context.Context, owner, repo string, refresh bool) (*RepoInfo, error) {
	key := owner + "/" + repo

	var info RepoInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, owner, repo, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, owner, repo string, info *RepoInfo) error {
	var data repoResponse
	url := fmt.Sprintf("%s/repos/%s/%s", c.baseURL, owner, repo)
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: github repo %s/%s", err, owner, repo)
		}
		return err
	}

	*info = RepoInfo{Owner: data.Owner.Login, Name: data.Name, License: data.License.SPDXID}
	if info.License == "NOASSERTION" {
		info.License = data.License.Name
	}
	if info.Owner == "" {
		info.Owner = owner
	}
	if info.Name == "" {
		info.Name = repo
	}
	return nil
}

// ExtractURL finds the owner and repository in a GitHub URL.
func ExtractURL(raw string) (owner, repo string, ok bool) {
	return integrations.ExtractRepoURL(repoURLPattern, raw)
}

// ModuleRepo maps a Go module path hosted on github.com to its repository,
// ignoring subdirectories and major version suffixes.
func ModuleRepo(modulePath string) (owner, repo string, ok bool) {
	parts := strings.Split(modulePath, "/")
	if len(parts) < 3 || parts[0] != "github.com" || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], parts[2], true
}

type repoResponse struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	License struct {
		SPDXID string `json:"spdx_id"`
		Name   string `json:"name"`
	} `json:"license"`
}
