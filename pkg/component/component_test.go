package component

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestKeyDeterministic(t *testing.T) {
	a := &Candidate{Name: "requests", Version: "2.31.0"}
	b := &Candidate{Name: "requests", Version: "2.31.0", File: "other.py", Type: Language}
	if a.Key() != b.Key() {
		t.Error("keys should depend only on identity fields")
	}

	c := &Candidate{Name: "requests", Version: "2.32.0"}
	if a.Key() == c.Key() {
		t.Error("different versions should produce different keys")
	}

	// Field boundaries matter: ("ab","c") and ("a","bc") differ.
	if Hash("ab", "c") == Hash("a", "bc") {
		t.Error("Hash should separate fields")
	}
	if len(a.Key()) != 64 {
		t.Errorf("key length = %d, want 64", len(a.Key()))
	}
}

func TestDeadImportMarkerSharesKey(t *testing.T) {
	real := &Candidate{Name: "bar", Group: "foo"}
	marker := &Candidate{Name: "bar", Group: "foo", Type: DeadImport}
	if real.Key() != marker.Key() {
		t.Error("dead-import marker should share the import's key")
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		c    *Candidate
		want bool
	}{
		{&Candidate{Name: "os"}, true},
		{&Candidate{Name: "  "}, false},
		{&Candidate{}, false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := tt.c.Valid(); got != tt.want {
			t.Errorf("Valid(%+v) = %v, want %v", tt.c, got, tt.want)
		}
	}
}

func TestApply(t *testing.T) {
	c := &Candidate{Name: "junit", Publisher: "old"}
	c.AddLicense("EPL-1.0")
	c.Apply(Enrichment{
		Hashes:   map[string]string{"SHA1": "abc"},
		Licenses: []string{"EPL-1.0", "Eclipse Public License 1.0"},
	})

	want := &Candidate{
		Name:      "junit",
		Publisher: "old",
		Hashes:    map[string]string{"sha1": "abc"},
		Licenses:  []string{"EPL-1.0", "Eclipse Public License 1.0"},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}

	c.Apply(Enrichment{Publisher: "JUnit"})
	if c.Publisher != "JUnit" {
		t.Errorf("Publisher = %q", c.Publisher)
	}
}

func TestFinalize(t *testing.T) {
	c := &Candidate{
		Name:     "requests",
		Version:  "2.31.0",
		File:     "requirements.txt",
		Licenses: []string{"Apache 2.0", "weird"},
		Hashes:   map[string]string{"sha256": "ff"},
	}
	resolve := func(raw string) string {
		if raw == "Apache 2.0" {
			return "Apache-2.0"
		}
		return ""
	}

	got := Finalize(c, resolve)
	if got.ID == "" {
		t.Error("ID should be assigned")
	}
	if got.Type != External {
		t.Errorf("Type = %v, want EXTERNAL", got.Type)
	}
	if !got.FileAnalyzed {
		t.Error("FileAnalyzed should be set")
	}
	wantLicenses := []License{{Raw: "Apache 2.0", ID: "Apache-2.0"}, {Raw: "weird"}}
	if diff := cmp.Diff(wantLicenses, got.Licenses); diff != "" {
		t.Errorf("Licenses mismatch (-want +got):\n%s", diff)
	}

	c.Hashes["sha256"] = "changed"
	if got.Hashes["sha256"] != "ff" {
		t.Error("finalized hashes should not alias the candidate's map")
	}

	other := Finalize(c, nil)
	if other.ID == got.ID {
		t.Error("each finalization should get a fresh ID")
	}
}

func TestFinalizeKeepsResolvedType(t *testing.T) {
	for _, typ := range []Type{Language, Internal, External} {
		got := Finalize(&Candidate{Name: "x", Type: typ}, nil)
		if got.Type != typ {
			t.Errorf("Finalize(%v).Type = %v", typ, got.Type)
		}
	}
}

func TestTypeJSON(t *testing.T) {
	data, err := json.Marshal(Component{Name: "os", Type: Language, Kind: Application})
	if err != nil {
		t.Fatal(err)
	}
	var back Component
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back.Type != Language || back.Kind != Application {
		t.Errorf("round trip = %v/%v", back.Type, back.Kind)
	}
}

func TestFullName(t *testing.T) {
	if got := (Component{Name: "bar", Group: "foo"}).FullName(); got != "foo/bar" {
		t.Errorf("FullName = %q", got)
	}
	if got := (Component{Name: "os"}).FullName(); got != "os" {
		t.Errorf("FullName = %q", got)
	}
}
