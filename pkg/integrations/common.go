package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/matzehuels/stackscan/pkg/httputil"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client for registry requests. Connecting is
// bounded by [httputil.DefaultConnectTimeout]; the whole request by a
// standard timeout.
func NewHTTPClient() *http.Client {
	c := httputil.NewClient(httputil.DefaultConnectTimeout)
	c.Timeout = httpTimeout
	return c
}

// NormalizePkgName converts a package name to its canonical form.
// Applies lowercase and replaces underscores with hyphens, following PEP 503
// normalization rules used by PyPI and other registries.
func NormalizePkgName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

var repoURLReplacer = strings.NewReplacer(
	"git@github.com:", "https://github.com/",
	"git://github.com/", "https://github.com/",
	"git@gitlab.com:", "https://gitlab.com/",
)

// NormalizeRepoURL converts various repository URL formats to canonical HTTPS form.
// Handles git@, git://, and git+ prefixes, and removes .git suffixes.
// Returns empty string if raw is empty.
func NormalizeRepoURL(raw string) string {
	if raw == "" {
		return ""
	}
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "git+")
	s = repoURLReplacer.Replace(s)
	return strings.TrimSuffix(s, ".git")
}

// ExtractRepoURL finds the owner and repository in a repository URL. The
// re parameter should match URLs and capture owner (group 1) and repo
// name (group 2). Returns ok=false if raw does not match.
func ExtractRepoURL(re *regexp.Regexp, raw string) (owner, repo string, ok bool) {
	if strings.Contains(raw, "/sponsors/") {
		return "", "", false
	}
	m := re.FindStringSubmatch(NormalizeRepoURL(raw))
	if len(m) < 3 {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}

// URLEncode percent-encodes a string for use in URLs.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }

// PathEscape percent-encodes a single path segment.
func PathEscape(s string) string { return url.PathEscape(s) }
