package maven

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/integrations/registrytest"
)

const testPOM = `<?xml version="1.0"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <groupId>org.example</groupId>
  <artifactId>mylib</artifactId>
  <version>1.0.0</version>
  <description> A library </description>
  <licenses>
    <license><name>The Apache Software License, Version 2.0</name></license>
  </licenses>
  <developers>
    <developer><name>Jane Doe</name></developer>
  </developers>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>31.0</version>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <scope>test</scope>
    </dependency>
  </dependencies>
</project>`

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		coord        string
		wantGroup    string
		wantArtifact string
		wantErr      bool
	}{
		{"org.springframework:spring-core", "org.springframework", "spring-core", false},
		{"com.google.guava:guava", "com.google.guava", "guava", false},
		{"invalid", "", "", true},
		{":guava", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.coord, func(t *testing.T) {
			g, a, err := parseCoordinate(tt.coord)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseCoordinate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if g != tt.wantGroup {
				t.Errorf("groupID = %v, want %v", g, tt.wantGroup)
			}
			if a != tt.wantArtifact {
				t.Errorf("artifactID = %v, want %v", a, tt.wantArtifact)
			}
		})
	}
}

func newTestClient(t *testing.T) (*Client, *registrytest.Server) {
	t.Helper()
	srv := registrytest.New(t)
	c := NewClient(nil, time.Hour)
	c.SetBaseURLs(srv.URL+"/solrsearch/select", srv.URL+"/maven2")
	return c, srv
}

func TestClient_FetchArtifact(t *testing.T) {
	c, srv := newTestClient(t)
	srv.Text("/maven2/org/example/mylib/1.0.0/mylib-1.0.0.pom", testPOM)
	srv.Text("/maven2/org/example/mylib/1.0.0/mylib-1.0.0.jar.sha1", "ABCDEF0123  mylib-1.0.0.jar\n")

	info, err := c.FetchArtifact(context.Background(), "org.example:mylib", "1.0.0", true)
	if err != nil {
		t.Fatalf("FetchArtifact failed: %v", err)
	}

	want := &ArtifactInfo{
		GroupID:      "org.example",
		ArtifactID:   "mylib",
		Version:      "1.0.0",
		Dependencies: []string{"com.google.guava:guava"},
		Description:  "A library",
		Licenses:     []string{"The Apache Software License, Version 2.0"},
		Publisher:    "Jane Doe",
		SHA1:         "abcdef0123",
		URL:          srv.URL + "/maven2/org/example/mylib/1.0.0/mylib-1.0.0.pom",
	}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("FetchArtifact mismatch (-want +got):\n%s", diff)
	}
	if info.Coordinate() != "org.example:mylib" {
		t.Errorf("expected coordinate org.example:mylib, got %s", info.Coordinate())
	}
	if e := info.Enrichment(); e.Hashes["sha1"] != "abcdef0123" || e.Publisher != "Jane Doe" {
		t.Errorf("Enrichment() = %+v", e)
	}
	if srv.Hits("/solrsearch/select") != 0 {
		t.Error("pinned versions must not hit the search API")
	}
}

func TestClient_FetchArtifact_LatestAndPOMChecksum(t *testing.T) {
	c, srv := newTestClient(t)
	srv.JSON("/solrsearch/select", `{"response":{"numFound":1,"docs":[{"g":"org.example","a":"mylib","latestVersion":"1.0.0"}]}}`)
	srv.Text("/maven2/org/example/mylib/1.0.0/mylib-1.0.0.pom", testPOM)
	srv.Text("/maven2/org/example/mylib/1.0.0/mylib-1.0.0.pom.sha1", "fedcba")

	info, err := c.FetchArtifact(context.Background(), "org.example:mylib", "", true)
	if err != nil {
		t.Fatalf("FetchArtifact failed: %v", err)
	}
	if info.Version != "1.0.0" || info.SHA1 != "fedcba" {
		t.Errorf("got version %q sha1 %q", info.Version, info.SHA1)
	}
}

func TestClient_FetchArtifact_NotFound(t *testing.T) {
	c, srv := newTestClient(t)
	srv.JSON("/solrsearch/select", `{"response":{"numFound":0,"docs":[]}}`)

	_, err := c.FetchArtifact(context.Background(), "org.missing:artifact", "", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	_, err = c.FetchArtifact(context.Background(), "org.missing:artifact", "1.0", true)
	if !errors.Is(err, integrations.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing POM, got %v", err)
	}
}

func TestExtractDeps(t *testing.T) {
	pom := &pomProject{
		Dependencies: []pomDependency{
			{GroupID: "org.apache", ArtifactID: "commons-lang", Scope: "compile"},
			{GroupID: "junit", ArtifactID: "junit", Scope: "test"},
			{GroupID: "org.slf4j", ArtifactID: "slf4j-api", Scope: "provided"},
			{GroupID: "org.optional", ArtifactID: "opt", Optional: "true"},
			{GroupID: "${project.groupId}", ArtifactID: "internal"},
		},
	}

	deps := extractDeps(pom)
	if len(deps) != 1 {
		t.Fatalf("expected 1 dep, got %d: %v", len(deps), deps)
	}
	if deps[0] != "org.apache:commons-lang" {
		t.Errorf("expected org.apache:commons-lang, got %s", deps[0])
	}
}

func TestPublisherPrefersOrganization(t *testing.T) {
	p := &pomProject{Organization: " Acme ", Developers: []string{"Jane"}}
	if got := p.publisher(); got != "Acme" {
		t.Errorf("publisher() = %q, want Acme", got)
	}
}
