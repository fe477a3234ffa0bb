package gitlab

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

var repoURLPattern = regexp.MustCompile(`https?://gitlab\.com/([^/]+)/([^/?#]+)`)

// ProjectInfo is the license and namespace of a GitLab project.
type ProjectInfo struct {
	Namespace string // Owning group or user name
	Path      string // Full project path (e.g., "gitlab-org/gitlab-runner")
	License   string // License nickname or name as reported by GitLab (may be empty)
}

// Enrichment reports the project license and namespace.
func (pi *ProjectInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Publisher: pi.Namespace}
	if pi.License != "" {
		e.Licenses = []string{pi.License}
	}
	return e
}

// Client provides access to the GitLab API for project license lookups.
// It handles HTTP requests with caching, automatic retries, and optional authentication.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a GitLab API client with optional authentication.
//
// Parameters:
//   - backend: Cache backend for HTTP response caching (nil disables caching)
//   - token: GitLab personal access token (empty string for unauthenticated)
//   - cacheTTL: How long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, token string, cacheTTL time.Duration) *Client {
	var headers map[string]string
	if token != "" {
		headers = map[string]string{"PRIVATE-TOKEN": token}
	}

	return &Client{
		Client:  integrations.NewClient(backend, "gitlab", cacheTTL, headers),
		baseURL: "https://gitlab.com/api/v4",
	}
}

// SetBaseURL points the client at a self-managed GitLab API root.
func (c *Client) SetBaseURL(u string) { c.baseURL = strings.TrimSuffix(u, "/") }

// FetchProject retrieves the license of the project at path ("group/name",
// subgroups allowed).
func (c *Client) FetchProject(ctx context.Context, path string, refresh bool) (*ProjectInfo, error) {
	path = strings.Trim(path, "/")

	var info ProjectInfo
	err := c.Cached(ctx, path, refresh, &info, func() error {
		return c.fetch(ctx, path, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, path string, info *ProjectInfo) error {
	var data projectResponse
	url := fmt.Sprintf("%s/projects/%s?license=true", c.baseURL, integrations.PathEscape(path))
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: gitlab project %s", err, path)
		}
		return err
	}

	*info = ProjectInfo{Namespace: data.Namespace.Name, Path: data.PathWithNamespace}
	if data.License != nil {
		info.License = data.License.Nickname
		if info.License == "" {
			info.License = data.License.Name
		}
	}
	if info.Path == "" {
		info.Path = path
	}
	return nil
}

// ExtractURL finds the owner and repository in a gitlab.com URL.
func ExtractURL(raw string) (owner, repo string, ok bool) {
	return integrations.ExtractRepoURL(repoURLPattern, raw)
}

// ModuleProject maps a Go module path hosted on gitlab.com to its project
// path. Subgroups cannot be told apart from package directories, so the
// first two elements are used and a trailing major version is dropped.
func ModuleProject(modulePath string) (string, bool) {
	parts := strings.Split(modulePath, "/")
	if len(parts) < 3 || parts[0] != "gitlab.com" || parts[1] == "" || parts[2] == "" {
		return "", false
	}
	return parts[1] + "/" + strings.TrimSuffix(parts[2], ".git"), true
}

type projectResponse struct {
	PathWithNamespace string `json:"path_with_namespace"`
	Namespace         struct {
		Name string `json:"name"`
	} `json:"namespace"`
	License *struct {
		Key      string `json:"key"`
		Name     string `json:"name"`
		Nickname string `json:"nickname"`
	} `json:"license"`
}
