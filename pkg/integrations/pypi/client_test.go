package pypi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/integrations/registrytest"
)

func TestClient_FetchPackage(t *testing.T) {
	srv := registrytest.New(t)
	srv.JSON("/flask/2.0.0/json", apiResponse{
		Info: apiInfo{
			Name:         "Flask",
			Version:      "2.0.0",
			Summary:      "A micro web framework",
			Classifiers:  []string{"License :: OSI Approved :: BSD License"},
			RequiresDist: []string{"click>=7.0", "werkzeug>=2.0", "pytest; extra == 'test'"},
			Author:       "Armin Ronacher",
		},
		URLs: []apiFile{
			{PackageType: "bdist_wheel", Digests: map[string]string{"sha256": "wheel"}},
			{PackageType: "sdist", Digests: map[string]string{"sha256": "sdist", "md5": "m", "blake2b_256": ""}},
		},
	})

	c := NewClient(nil, time.Hour)
	c.SetBaseURL(srv.URL)

	info, err := c.FetchPackage(context.Background(), "Flask", "2.0.0", false)
	if err != nil {
		t.Fatalf("FetchPackage failed: %v", err)
	}

	want := &PackageInfo{
		Name:         "flask",
		Version:      "2.0.0",
		Summary:      "A micro web framework",
		License:      "BSD License",
		Author:       "Armin Ronacher",
		Dependencies: []string{"click", "werkzeug"},
		Digests:      map[string]string{"sha256": "sdist", "md5": "m"},
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("FetchPackage mismatch (-want +got):\n%s", diff)
	}

	e := info.Enrichment()
	if e.Publisher != "Armin Ronacher" || len(e.Licenses) != 1 || e.Hashes["sha256"] != "sdist" {
		t.Errorf("Enrichment() = %+v", e)
	}
}

func TestClient_FetchPackage_Latest(t *testing.T) {
	srv := registrytest.New(t)
	srv.JSON("/requests/json", apiResponse{Info: apiInfo{
		Name: "requests", Version: "2.31.0", LicenseExpression: "Apache-2.0", Maintainer: "PSF",
	}})

	c := NewClient(nil, time.Hour)
	c.SetBaseURL(srv.URL)

	info, err := c.FetchPackage(context.Background(), "requests", "", false)
	if err != nil {
		t.Fatalf("FetchPackage failed: %v", err)
	}
	if info.Version != "2.31.0" || info.License != "Apache-2.0" || info.Author != "PSF" {
		t.Errorf("got %+v", info)
	}
	if e := info.Enrichment(); !cmp.Equal(e, component.Enrichment{Publisher: "PSF", Licenses: []string{"Apache-2.0"}}) {
		t.Errorf("Enrichment() = %+v", e)
	}
}

func TestClient_FetchPackage_NotFound(t *testing.T) {
	srv := registrytest.New(t)

	c := NewClient(nil, time.Hour)
	c.SetBaseURL(srv.URL)

	_, err := c.FetchPackage(context.Background(), "missing-pkg", "1.0", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestExtractDeps_FiltersMarkers(t *testing.T) {
	tests := []struct {
		input    []string
		expected int
	}{
		{[]string{"requests", "numpy; extra == 'dev'"}, 1},
		{[]string{"django>=3.0", "pytest; extra == 'test'"}, 1},
		{[]string{"flask", "Flask"}, 1},
		{[]string{"zope.interface>=5"}, 1},
	}

	for _, tt := range tests {
		got := extractDeps(tt.input)
		if len(got) != tt.expected {
			t.Errorf("extractDeps(%v): expected %d deps, got %d", tt.input, tt.expected, len(got))
		}
	}
}

func TestExtractLicenseType(t *testing.T) {
	tests := []struct {
		license     string
		classifiers []string
		want        string
	}{
		{"", []string{"License :: OSI Approved :: MIT License"}, "MIT License"},
		{"BSD-3-Clause", nil, "BSD-3-Clause"},
		{"Apache License 2.0\n\nLong text follows and goes on and on for quite a while to exceed limits...", nil, "Apache License 2.0"},
		{"", nil, ""},
	}
	for _, tt := range tests {
		if got := extractLicenseType(tt.license, tt.classifiers); got != tt.want {
			t.Errorf("extractLicenseType(%q) = %q, want %q", tt.license, got, tt.want)
		}
	}
}
