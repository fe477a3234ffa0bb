package github

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/integrations/registrytest"
)

func TestClient_FetchRepo(t *testing.T) {
	srv := registrytest.New(t)
	var auth string
	srv.Handle("/repos/spf13/cobra", func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		w.Write([]byte(`{"name":"cobra","owner":{"login":"spf13"},"license":{"spdx_id":"Apache-2.0","name":"Apache License 2.0"}}`))
	})
	srv.JSON("/repos/acme/custom", `{"name":"custom","owner":{"login":"acme"},"license":{"spdx_id":"NOASSERTION","name":"Other"}}`)

	c := NewClient(nil, "test-token", time.Hour)
	c.SetBaseURL(srv.URL)

	info, err := c.FetchRepo(context.Background(), "spf13", "cobra", false)
	if err != nil {
		t.Fatalf("FetchRepo failed: %v", err)
	}
	if diff := cmp.Diff(&RepoInfo{Owner: "spf13", Name: "cobra", License: "Apache-2.0"}, info); diff != "" {
		t.Errorf("FetchRepo mismatch (-want +got):\n%s", diff)
	}
	if auth != "Bearer test-token" {
		t.Errorf("Authorization = %q", auth)
	}

	info, err = c.FetchRepo(context.Background(), "acme", "custom", false)
	if err != nil {
		t.Fatalf("FetchRepo failed: %v", err)
	}
	if info.License != "Other" {
		t.Errorf("license = %q, want Other", info.License)
	}
	if got := info.Enrichment(); got.Publisher != "acme" || len(got.Licenses) != 1 {
		t.Errorf("Enrichment = %+v", got)
	}
}

func TestClient_FetchRepo_NotFound(t *testing.T) {
	srv := registrytest.New(t)
	c := NewClient(nil, "", time.Hour)
	c.SetBaseURL(srv.URL)

	if _, err := c.FetchRepo(context.Background(), "foo", "bar", false); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExtractURL(t *testing.T) {
	tests := []struct {
		raw       string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"https://github.com/foo/bar", "foo", "bar", true},
		{"http://github.com/baz/qux.git", "baz", "qux", true},
		{"git@github.com:baz/qux.git", "baz", "qux", true},
		{"https://github.com/sponsors/foo", "", "", false},
		{"https://google.com", "", "", false},
	}

	for _, tt := range tests {
		owner, repo, ok := ExtractURL(tt.raw)
		if ok != tt.wantOK || owner != tt.wantOwner || repo != tt.wantRepo {
			t.Errorf("ExtractURL(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.raw, owner, repo, ok, tt.wantOwner, tt.wantRepo, tt.wantOK)
		}
	}
}

func TestModuleRepo(t *testing.T) {
	tests := []struct {
		path      string
		wantOwner string
		wantRepo  string
		wantOK    bool
	}{
		{"github.com/spf13/cobra", "spf13", "cobra", true},
		{"github.com/redis/go-redis/v9", "redis", "go-redis", true},
		{"github.com/spf13", "", "", false},
		{"golang.org/x/mod", "", "", false},
	}
	for _, tt := range tests {
		owner, repo, ok := ModuleRepo(tt.path)
		if ok != tt.wantOK || owner != tt.wantOwner || repo != tt.wantRepo {
			t.Errorf("ModuleRepo(%q) = (%q, %q, %v)", tt.path, owner, repo, ok)
		}
	}
}
