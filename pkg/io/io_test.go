package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/errors"
	"github.com/matzehuels/stackscan/pkg/scan"
)

func testResult() *scan.Result {
	return &scan.Result{
		Components: []component.Component{
			{
				ID: "c1", Key: "k1", Name: "requests", Version: "2.31.0",
				Type: component.External, PURL: "pkg:pypi/requests@2.31.0",
				Licenses:     []component.License{{Raw: "Apache 2.0", ID: "Apache-2.0"}},
				File:         "requirements.txt",
				FileAnalyzed: true,
			},
			{
				ID: "c2", Key: "k2", Name: "git status",
				Type: component.External, Kind: component.Application,
				File: "tools/run.py", FileAnalyzed: true,
			},
		},
		Stats: scan.Stats{Files: 2, Parsed: 3, Components: 2, Duplicates: 1, Duration: 1500 * time.Millisecond},
		Err:   multierr.Append(errors.New(errors.ErrCodeInvalidManifest, "pom.xml: bad"), nil),
	}
}

func TestNewDocument(t *testing.T) {
	doc := NewDocument("acme", testResult())

	if doc.Project != "acme" || doc.Tool.Name != "stackscan" {
		t.Errorf("header = %q/%q", doc.Project, doc.Tool.Name)
	}
	if doc.Stats.DurationMS != 1500 || doc.Stats.Duplicates != 1 {
		t.Errorf("stats = %+v", doc.Stats)
	}
	if len(doc.Errors) != 1 || !strings.Contains(doc.Errors[0], "pom.xml") {
		t.Errorf("errors = %v", doc.Errors)
	}
	if doc.GeneratedAt.IsZero() || doc.GeneratedAt.Location() != time.UTC {
		t.Errorf("GeneratedAt = %v, want a UTC time", doc.GeneratedAt)
	}
}

func TestNewDocumentNilResult(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(NewDocument("empty", nil), &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if !strings.Contains(buf.String(), `"components": []`) {
		t.Errorf("components should encode as an empty array:\n%s", buf.String())
	}
}

func TestWriteJSONNames(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(NewDocument("acme", testResult()), &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"type": "EXTERNAL"`, `"kind": "APPLICATION"`, `"file_analyzed": true`, `"duration_ms": 1500`} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s", want)
		}
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	doc := NewDocument("acme", testResult())
	if err := ExportJSON(doc, path); err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	got, err := ImportJSON(path)
	if err != nil {
		t.Fatalf("ImportJSON: %v", err)
	}
	if diff := cmp.Diff(doc, *got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadJSONValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		nerrs int
	}{
		{"valid", `{"components": [{"id": "a", "name": "x"}]}`, 0},
		{"missing id", `{"components": [{"name": "x"}]}`, 1},
		{"duplicate id", `{"components": [{"id": "a", "name": "x"}, {"id": "a", "name": "y"}]}`, 1},
		{"missing name and id", `{"components": [{"type": "EXTERNAL"}]}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ReadJSON(strings.NewReader(tt.input))
			if doc == nil {
				t.Fatal("document should be returned alongside validation errors")
			}
			errs := multierr.Errors(err)
			if len(errs) != tt.nerrs {
				t.Fatalf("got %d errors (%v), want %d", len(errs), err, tt.nerrs)
			}
			for _, e := range errs {
				if !errors.Is(e, errors.ErrCodeInvalidInput) {
					t.Errorf("error %v is not INVALID_INPUT", e)
				}
			}
		})
	}
}

func TestReadJSONMalformed(t *testing.T) {
	_, err := ReadJSON(strings.NewReader(`{"components": [`))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestImportJSONMissingFile(t *testing.T) {
	if _, err := ImportJSON(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
