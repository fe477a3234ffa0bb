package goproxy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/integrations/registrytest"
)

func TestParseGoMod(t *testing.T) {
	content := `module github.com/example/myapp

go 1.21

require (
	github.com/gin-gonic/gin v1.9.0
	github.com/spf13/cobra v1.7.0
	golang.org/x/sync v0.3.0 // indirect
)

require github.com/stretchr/testify v1.8.0
`

	deps, err := parseGoMod([]byte(content))
	if err != nil {
		t.Fatalf("parseGoMod failed: %v", err)
	}

	want := []string{"github.com/gin-gonic/gin", "github.com/spf13/cobra", "github.com/stretchr/testify"}
	if diff := cmp.Diff(want, deps); diff != "" {
		t.Errorf("deps mismatch (-want +got):\n%s", diff)
	}
}

const sumLookup = `1234567
github.com/Example/mylib v1.2.3 h1:zipHash=
github.com/Example/mylib v1.2.3/go.mod h1:modHash=

go.sum database tree
1234568
`

func newServer(t *testing.T) *registrytest.Server {
	srv := registrytest.New(t)
	srv.JSON("/proxy/github.com/!example/mylib/@latest", latestResponse{Version: "v1.2.3"})
	srv.Text("/proxy/github.com/!example/mylib/@v/v1.2.3.mod", "module github.com/Example/mylib\n\nrequire github.com/pkg/errors v0.9.1\n")
	srv.Text("/sumdb/lookup/github.com/!example/mylib@v1.2.3", sumLookup)
	return srv
}

func TestClient_FetchModule(t *testing.T) {
	srv := newServer(t)
	c := NewClient(nil, time.Hour)
	c.SetBaseURLs(srv.URL+"/proxy", srv.URL+"/sumdb")

	for _, version := range []string{"", "v1.2.3"} {
		info, err := c.FetchModule(context.Background(), "github.com/Example/mylib", version, false)
		if err != nil {
			t.Fatalf("FetchModule(%q) failed: %v", version, err)
		}
		want := &ModuleInfo{
			Path:         "github.com/Example/mylib",
			Version:      "v1.2.3",
			Dependencies: []string{"github.com/pkg/errors"},
			Sum:          "h1:zipHash=",
		}
		if diff := cmp.Diff(want, info); diff != "" {
			t.Errorf("FetchModule(%q) mismatch (-want +got):\n%s", version, diff)
		}
		if got := info.Enrichment().Hashes["h1"]; got != "zipHash=" {
			t.Errorf("h1 = %q, want zipHash=", got)
		}
	}
}

func TestClient_FetchModule_MissingSum(t *testing.T) {
	srv := registrytest.New(t)
	srv.Text("/github.com/a/b/@v/v0.1.0.mod", "module github.com/a/b\n")
	c := NewClient(nil, time.Hour)
	c.SetBaseURLs(srv.URL, srv.URL)

	info, err := c.FetchModule(context.Background(), "github.com/a/b", "v0.1.0", false)
	if err != nil {
		t.Fatalf("FetchModule failed: %v", err)
	}
	if info.Sum != "" || !info.Enrichment().Empty() {
		t.Errorf("expected no hash, got %+v", info)
	}
}

func TestClient_FetchModule_NotFound(t *testing.T) {
	srv := registrytest.New(t)
	c := NewClient(nil, time.Hour)
	c.SetBaseURLs(srv.URL, srv.URL)

	_, err := c.FetchModule(context.Background(), "github.com/missing/module", "", false)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FetchModule_InvalidPath(t *testing.T) {
	c := NewClient(nil, time.Hour)
	if _, err := c.FetchModule(context.Background(), "bad path\x00", "v1.0.0", false); err == nil {
		t.Error("expected error for invalid module path")
	}
}
