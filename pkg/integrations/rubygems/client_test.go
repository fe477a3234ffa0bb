package rubygems

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/integrations/registrytest"
)

func railsResponse(version string) gemResponse {
	resp := gemResponse{
		Name:          "rails",
		Version:       version,
		Info:          "Ruby on Rails is a full-stack web framework",
		Licenses:      []string{"MIT"},
		SourceCodeURI: "https://github.com/rails/rails",
		Authors:       "David Heinemeier Hansson",
		SHA:           "abc123",
	}
	resp.Dependencies.Runtime = []dependency{{Name: "activesupport"}, {Name: "ActionPack"}, {Name: "activesupport"}}
	return resp
}

func TestClient_FetchGem(t *testing.T) {
	srv := registrytest.New(t)
	srv.JSON("/v1/gems/rails.json", railsResponse("7.1.2"))
	srv.JSON("/v2/rubygems/rails/versions/7.0.0.json", railsResponse("7.0.0"))

	c := NewClient(nil, time.Hour)
	c.SetBaseURL(srv.URL)

	tests := []struct {
		version string
		want    string
	}{
		{"", "7.1.2"},
		{"7.0.0", "7.0.0"},
		{"~> 7.0.0", "7.0.0"},
	}
	for _, tt := range tests {
		info, err := c.FetchGem(context.Background(), " Rails ", tt.version, false)
		if err != nil {
			t.Fatalf("FetchGem(%q) failed: %v", tt.version, err)
		}
		if info.Version != tt.want {
			t.Errorf("FetchGem(%q) version = %q, want %q", tt.version, info.Version, tt.want)
		}
		if diff := cmp.Diff([]string{"activesupport", "actionpack"}, info.Dependencies); diff != "" {
			t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestGemInfo_Enrichment(t *testing.T) {
	info := &GemInfo{Licenses: []string{"MIT"}, Authors: "DHH", SHA256: "abc"}
	want := component.Enrichment{
		Licenses:  []string{"MIT"},
		Publisher: "DHH",
		Hashes:    map[string]string{"sha256": "abc"},
	}
	if diff := cmp.Diff(want, info.Enrichment()); diff != "" {
		t.Errorf("Enrichment mismatch (-want +got):\n%s", diff)
	}
	if !(&GemInfo{}).Enrichment().Empty() {
		t.Error("empty info should produce empty enrichment")
	}
}

func TestClient_FetchGem_NotFound(t *testing.T) {
	srv := registrytest.New(t)
	c := NewClient(nil, time.Hour)
	c.SetBaseURL(srv.URL)

	_, err := c.FetchGem(context.Background(), "missing", "1.0.0", false)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FetchGem_Cached(t *testing.T) {
	srv := registrytest.New(t)
	srv.JSON("/v1/gems/rails.json", railsResponse("7.1.2"))

	mem, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(mem, time.Hour)
	c.SetBaseURL(srv.URL)

	for range 3 {
		if _, err := c.FetchGem(context.Background(), "rails", "", false); err != nil {
			t.Fatal(err)
		}
	}
	if n := srv.Hits("/v1/gems/rails.json"); n != 1 {
		t.Errorf("hits = %d, want 1", n)
	}
}
