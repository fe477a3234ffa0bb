package crates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackscan/pkg/cache"
	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/integrations/registrytest"
)

func TestNewClient(t *testing.T) {
	c := NewClient(cache.NewNullCache(), time.Hour)
	if c.Client == nil {
		t.Error("expected client to be initialized")
	}
}

func newServer(t *testing.T) *registrytest.Server {
	srv := registrytest.New(t)
	srv.JSON("/crates/serde", `{"crate":{"name":"serde","max_version":"1.0.193"}}`)
	srv.JSON("/crates/serde/1.0.193", `{"version":{
		"crate":"serde","num":"1.0.193","license":"MIT OR Apache-2.0",
		"checksum":"25dd","published_by":{"login":"dtolnay","name":"David Tolnay"}}}`)
	srv.JSON("/crates/serde/1.0.193/dependencies", `{"dependencies":[
		{"crate_id":"serde_derive","kind":"normal","optional":true},
		{"crate_id":"serde_core","kind":"normal","optional":false},
		{"crate_id":"test_dep","kind":"dev","optional":false}]}`)
	return srv
}

func TestClient_FetchCrate(t *testing.T) {
	srv := newServer(t)
	c := NewClient(nil, time.Hour)
	c.SetBaseURL(srv.URL)

	for _, version := range []string{"1.0.193", "^1.0.193", ""} {
		info, err := c.FetchCrate(context.Background(), "serde", version, false)
		if err != nil {
			t.Fatalf("FetchCrate(%q) failed: %v", version, err)
		}
		want := &CrateInfo{
			Name:         "serde",
			Version:      "1.0.193",
			License:      "MIT OR Apache-2.0",
			Publisher:    "David Tolnay",
			Checksum:     "25dd",
			Dependencies: []string{"serde_core"},
		}
		if diff := cmp.Diff(want, info); diff != "" {
			t.Errorf("FetchCrate(%q) mismatch (-want +got):\n%s", version, diff)
		}
	}

	info, _ := c.FetchCrate(context.Background(), "serde", "1.0.193", false)
	e := info.Enrichment()
	if diff := cmp.Diff([]string{"MIT", "Apache-2.0"}, e.Licenses); diff != "" {
		t.Errorf("licenses mismatch (-want +got):\n%s", diff)
	}
	if e.Hashes["sha256"] != "25dd" {
		t.Errorf("hashes = %v", e.Hashes)
	}
}

func TestClient_FetchCrate_NotFound(t *testing.T) {
	srv := registrytest.New(t)
	c := NewClient(nil, time.Hour)
	c.SetBaseURL(srv.URL)

	if _, err := c.FetchCrate(context.Background(), "nope", "1.0.0", false); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSplitExpression(t *testing.T) {
	tests := map[string][]string{
		"MIT":                                  {"MIT"},
		"MIT OR Apache-2.0":                    {"MIT", "Apache-2.0"},
		"MIT/Apache-2.0":                       {"MIT", "Apache-2.0"},
		"(MIT OR Apache-2.0) AND BSD-3-Clause": {"MIT", "Apache-2.0", "BSD-3-Clause"},
		"":                                     nil,
	}
	for in, want := range tests {
		if diff := cmp.Diff(want, splitExpression(in)); diff != "" {
			t.Errorf("splitExpression(%q) mismatch (-want +got):\n%s", in, diff)
		}
	}
}
