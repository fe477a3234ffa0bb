package anaconda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/stackscan/pkg/integrations"
	"github.com/matzehuels/stackscan/pkg/integrations/registrytest"
)

const numpy = `{
  "name": "numpy",
  "license": "BSD-3-Clause",
  "latest_version": "1.26.4",
  "files": [
    {"version": "1.26.0", "sha256": "aaa", "md5": "a1", "attrs": {"license": "BSD 3-Clause"}},
    {"version": "1.26.4", "sha256": "bbb", "md5": "b1", "attrs": {}},
    {"version": "1.26.4", "sha256": "ccc", "md5": "c1", "attrs": {}}
  ]
}`

func TestClient_FetchPackage(t *testing.T) {
	srv := registrytest.New(t)
	srv.JSON("/package/conda-forge/numpy", numpy)
	srv.JSON("/package/bioconda/numpy", numpy)

	c := NewClient(nil, time.Hour)
	c.SetBaseURL(srv.URL)

	tests := []struct {
		name    string
		channel string
		version string
		want    *PackageInfo
	}{
		{
			name: "latest default channel",
			want: &PackageInfo{Channel: "conda-forge", Name: "numpy", Version: "1.26.4", License: "BSD-3-Clause", SHA256: "bbb", MD5: "b1"},
		},
		{
			name:    "pinned with file license",
			channel: "bioconda",
			version: "=1.26.0",
			want:    &PackageInfo{Channel: "bioconda", Name: "numpy", Version: "1.26.0", License: "BSD 3-Clause", SHA256: "aaa", MD5: "a1"},
		},
		{
			name:    "unknown version keeps package license",
			version: "0.1",
			want:    &PackageInfo{Channel: "conda-forge", Name: "numpy", Version: "0.1", License: "BSD-3-Clause"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.FetchPackage(context.Background(), tt.channel, "NumPy", tt.version, false)
			if err != nil {
				t.Fatalf("FetchPackage failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FetchPackage mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPackageInfo_Enrichment(t *testing.T) {
	info := &PackageInfo{Channel: "conda-forge", License: "MIT", SHA256: "s"}
	e := info.Enrichment()
	if e.Publisher != "conda-forge" || e.Hashes["sha256"] != "s" || len(e.Hashes) != 1 {
		t.Errorf("Enrichment = %+v", e)
	}
}

func TestClient_FetchPackage_NotFound(t *testing.T) {
	srv := registrytest.New(t)
	c := NewClient(nil, time.Hour)
	c.SetBaseURL(srv.URL)

	if _, err := c.FetchPackage(context.Background(), "", "nope", "", false); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
