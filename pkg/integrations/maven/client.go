package maven

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
)

// ArtifactInfo holds metadata for one version of a Java artifact.
//
// Artifacts are identified by "groupId:artifactId" coordinates.
// Dependencies include only compile-scope dependencies; test, provided, and optional deps are excluded.
// Dependencies with unresolved Maven properties (${...}) are skipped.
//
// Zero values: All string fields are empty, slices are nil.
// This struct is safe for concurrent reads after construction.
type ArtifactInfo struct {
	GroupID      string   // Maven groupId (e.g., "com.google.guava", never empty in valid info)
	ArtifactID   string   // Maven artifactId (e.g., "guava", never empty in valid info)
	Version      string   // Requested or latest version (e.g., "32.1.3-jre", never empty in valid info)
	Dependencies []string // Compile-scope dependency coordinates (nil or empty if none or POM fetch failed)
	Description  string   // Artifact description from POM (may be empty)
	Licenses     []string // License names declared in the POM (may be empty)
	Publisher    string   // Organization, or first developer, from the POM (may be empty)
	SHA1         string   // SHA-1 of the artifact's jar, or of its POM for pom-only artifacts
	URL          string   // URL to the POM file (never empty in valid info)
}

// Coordinate returns the Maven coordinate string "groupId:artifactId".
// Example: "com.google.guava:guava"
func (a *ArtifactInfo) Coordinate() string {
	return a.GroupID + ":" + a.ArtifactID
}

// Enrichment converts the artifact metadata into component fields.
func (a *ArtifactInfo) Enrichment() component.Enrichment {
	e := component.Enrichment{Licenses: a.Licenses, Publisher: a.Publisher}
	if a.SHA1 != "" {
		e.Hashes = map[string]string{"sha1": a.SHA1}
	}
	return e
}

// Client provides access to Maven Central.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	searchURL string
	repoURL   string
}

// NewClient creates a Maven Central client with the given cache backend.
//
// The cacheTTL parameter sets how long responses are cached.
// Typical values: 1-24 hours for production.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:    integrations.NewClient(backend, "maven", cacheTTL, nil),
		searchURL: "https://search.maven.org/solrsearch/select",
		repoURL:   "https://repo1.maven.org/maven2",
	}
}

// SetBaseURLs points the client at another search endpoint and
// repository layout root.
func (c *Client) SetBaseURLs(search, repo string) {
	c.searchURL = search
	c.repoURL = strings.TrimSuffix(repo, "/")
}

// FetchArtifact retrieves metadata for a Java artifact.
//
// The coordinate parameter must be in the format "groupId:artifactId".
// Examples: "com.google.guava:guava", "org.apache.commons:commons-lang3"
// An empty version selects the latest version known to the search API.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Besides the optional search call, this method fetches the POM (for
// licenses, publisher and dependencies) and the jar's .sha1 file. Failures
// of the checksum fetch are ignored.
//
// Returns:
//   - ArtifactInfo populated with metadata on success
//   - [integrations.ErrNotFound] if the artifact doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - Error if coordinate format is invalid
func (c *Client) FetchArtifact(ctx context.Context, coordinate, version string, refresh bool) (*ArtifactInfo, error) {
	groupID, artifactID, err := parseCoordinate(coordinate)
	if err != nil {
		return nil, err
	}

	key := coordinate
	if version != "" {
		key += ":" + version
	}

	var info ArtifactInfo
	err = c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, groupID, artifactID, version, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, groupID, artifactID, version string, info *ArtifactInfo) error {
	if version == "" {
		latest, err := c.fetchLatest(ctx, groupID, artifactID)
		if err != nil {
			return err
		}
		version = latest
	}

	base := c.artifactURL(groupID, artifactID, version)
	pomURL := base + ".pom"
	pom, err := c.fetchPOM(ctx, pomURL)
	if err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: maven artifact %s:%s:%s", err, groupID, artifactID, version)
		}
		return err
	}

	*info = ArtifactInfo{
		GroupID:      groupID,
		ArtifactID:   artifactID,
		Version:      version,
		Dependencies: extractDeps(pom),
		Description:  strings.TrimSpace(pom.Description),
		Licenses:     pom.licenseNames(),
		Publisher:    pom.publisher(),
		SHA1:         c.fetchSHA1(ctx, base+".jar.sha1", pomURL+".sha1"),
		URL:          pomURL,
	}
	return nil
}

func (c *Client) fetchLatest(ctx context.Context, groupID, artifactID string) (string, error) {
	query := fmt.Sprintf("g:%q AND a:%q", groupID, artifactID)
	url := fmt.Sprintf("%s?q=%s&rows=1&wt=json", c.searchURL, integrations.URLEncode(query))

	var searchResp searchResponse
	if err := c.Get(ctx, url, &searchResp); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return "", fmt.Errorf("%w: maven artifact %s:%s", err, groupID, artifactID)
		}
		return "", err
	}
	if searchResp.Response.NumFound == 0 || len(searchResp.Response.Docs) == 0 {
		return "", fmt.Errorf("%w: maven artifact %s:%s", integrations.ErrNotFound, groupID, artifactID)
	}

	doc := searchResp.Response.Docs[0]
	if doc.LatestVersion != "" {
		return doc.LatestVersion, nil
	}
	return doc.Version, nil
}

func (c *Client) artifactURL(groupID, artifactID, version string) string {
	groupPath := strings.ReplaceAll(groupID, ".", "/")
	return fmt.Sprintf("%s/%s/%s/%s/%s-%s", c.repoURL, groupPath, artifactID, version, artifactID, version)
}

func (c *Client) fetchPOM(ctx context.Context, url string) (*pomProject, error) {
	data, err := c.GetBytes(ctx, url)
	if err != nil {
		return nil, err
	}
	var pom pomProject
	if err := xml.Unmarshal(data, &pom); err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return &pom, nil
}

// fetchSHA1 returns the first checksum file that answers. Checksum files
// hold the hex digest, sometimes followed by a file name.
func (c *Client) fetchSHA1(ctx context.Context, urls ...string) string {
	for _, u := range urls {
		text, err := c.GetText(ctx, u)
		if err != nil {
			continue
		}
		if f := strings.Fields(text); len(f) > 0 {
			return strings.ToLower(f[0])
		}
	}
	return ""
}

func extractDeps(pom *pomProject) []string {
	var deps []string
	seen := make(map[string]bool)

	for _, dep := range pom.Dependencies {
		if dep.Scope == "test" || dep.Scope == "provided" || dep.Optional == "true" {
			continue
		}
		if strings.HasPrefix(dep.GroupID, "${") || strings.HasPrefix(dep.ArtifactID, "${") {
			continue
		}
		coord := dep.GroupID + ":" + dep.ArtifactID
		if !seen[coord] {
			seen[coord] = true
			deps = append(deps, coord)
		}
	}
	return deps
}

func parseCoordinate(coord string) (groupID, artifactID string, err error) {
	parts := strings.Split(coord, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid maven coordinate %q (expected groupId:artifactId)", coord)
	}
	return parts[0], parts[1], nil
}

type searchResponse struct {
	Response struct {
		NumFound int         `json:"numFound"`
		Docs     []searchDoc `json:"docs"`
	} `json:"response"`
}

type searchDoc struct {
	GroupID       string `json:"g"`
	ArtifactID    string `json:"a"`
	Version       string `json:"v"`
	LatestVersion string `json:"latestVersion"`
}

type pomProject struct {
	GroupID      string          `xml:"groupId"`
	ArtifactID   string          `xml:"artifactId"`
	Version      string          `xml:"version"`
	Name         string          `xml:"name"`
	Description  string          `xml:"description"`
	URL          string          `xml:"url"`
	Organization string          `xml:"organization>name"`
	Developers   []string        `xml:"developers>developer>name"`
	Licenses     []pomLicense    `xml:"licenses>license"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
}

type pomLicense struct {
	Name string `xml:"name"`
	URL  string `xml:"url"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
	Scope      string `xml:"scope"`
	Optional   string `xml:"optional"`
}

func (p *pomProject) licenseNames() []string {
	var out []string
	for _, l := range p.Licenses {
		if n := strings.TrimSpace(l.Name); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (p *pomProject) publisher() string {
	if o := strings.TrimSpace(p.Organization); o != "" {
		return o
	}
	for _, d := range p.Developers {
		if d = strings.TrimSpace(d); d != "" {
			return d
		}
	}
	return ""
}
