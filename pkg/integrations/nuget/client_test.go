package nuget

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

const serilogNuspec = `<?xml version="1.0" encoding="utf-8"?>
<package xmlns="http://schemas.microsoft.com/packaging/2013/05/nuspec.xsd">
  <metadata>
    <id>Serilog</id>
    <version>3.1.1</version>
    <authors>Serilog Contributors</authors>
    <license type="expression">Apache-2.0</license>
    <licenseUrl>https://licenses.nuget.org/Apache-2.0</licenseUrl>
    <copyright>Copyright 2013-2023 Serilog Contributors</copyright>
    <dependencies>
      <group targetFramework=".NETFramework4.6.2">
        <dependency id="System.Diagnostics.DiagnosticSource" version="7.0.2" />
      </group>
      <group targetFramework="net6.0">
        <dependency id="System.Diagnostics.DiagnosticSource" version="7.0.2" />
        <dependency id="System.Threading.Channels" version="7.0.0" />
      </group>
    </dependencies>
  </metadata>
</package>`

func newServer(t *testing.T) *registrytest.Server {
	srv := registrytest.New(t)
	srv.JSON("/flat/serilog/index.json", `{"versions":["3.0.0","3.1.1"]}`)
	srv.Text("/flat/serilog/3.1.1/serilog.nuspec", serilogNuspec)
	srv.JSON("/reg/serilog/3.1.1.json", `{"catalogEntry":"`+srv.URL+`/catalog/serilog.3.1.1.json"}`)
	// base64 of bytes 0x01 0x02 0xff
	srv.JSON("/catalog/serilog.3.1.1.json", `{"packageHash":"AQL/","packageHashAlgorithm":"SHA512"}`)
	return srv
}

func TestClient_FetchPackage(t *testing.T) {
	srv := newServer(t)
	c := NewClient(nil, time.Hour)
	c.SetBaseURLs(srv.URL+"/flat", srv.URL+"/reg")

	for _, version := range []string{"3.1.1", "[3.1.1]", ""} {
		info, err := c.FetchPackage(context.Background(), "Serilog", version, false)
		if err != nil {
			t.Fatalf("FetchPackage(%q) failed: %v", version, err)
		}
		want := &PackageInfo{
			ID:           "Serilog",
			Version:      "3.1.1",
			Dependencies: []string{"System.Diagnostics.DiagnosticSource", "System.Threading.Channels"},
			Authors:      "Serilog Contributors",
			Copyright:    "Copyright 2013-2023 Serilog Contributors",
			License:      "Apache-2.0",
			LicenseURL:   "https://licenses.nuget.org/Apache-2.0",
			SHA512:       "0102ff",
		}
		if diff := cmp.Diff(want, info); diff != "" {
			t.Errorf("FetchPackage(%q) mismatch (-want +got):\n%s", version, diff)
		}
	}
}

func TestPackageInfo_Enrichment(t *testing.T) {
	tests := []struct {
		name string
		info PackageInfo
		want component.Enrichment
	}{
		{
			name: "expression wins over url",
			info: PackageInfo{License: "MIT", LicenseURL: "https://x", Authors: "a", Copyright: "c"},
			want: component.Enrichment{Licenses: []string{"MIT"}, Publisher: "a", Copyright: "c"},
		},
		{
			name: "legacy url",
			info: PackageInfo{LicenseURL: "https://opensource.org/licenses/MIT", SHA512: "ff"},
			want: component.Enrichment{
				Licenses: []string{"https://opensource.org/licenses/MIT"},
				Hashes:   map[string]string{"sha512": "ff"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.info.Enrichment()); diff != "" {
				t.Errorf("Enrichment mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClient_FetchPackage_NotFound(t *testing.T) {
	srv := registrytest.New(t)
	srv.JSON("/flat/empty/index.json", `{"versions":[]}`)
	c := NewClient(nil, time.Hour)
	c.SetBaseURLs(srv.URL+"/flat", srv.URL+"/reg")

	for _, tc := range []struct{ id, version string }{{"missing", "1.0.0"}, {"empty", ""}} {
		if _, err := c.FetchPackage(context.Background(), tc.id, tc.version, false); !errors.Is(err, integrations.ErrNotFound) {
			t.Errorf("FetchPackage(%q): expected ErrNotFound, got %v", tc.id, err)
		}
	}
}
