package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/buildinfo"
	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/scan"
)

// Document is the exported form of one scan.
type Document struct {
	Project     string                `json:"project"`
	GeneratedAt time.Time             `json:"generated_at"`
	Tool        Tool                  `json:"tool"`
	Stats       Stats                 `json:"stats"`
	Components  []component.Component `json:"components"`
	Errors      []string              `json:"errors,omitempty"`
}

// Tool identifies the build that produced a document.
type Tool struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
}

// Stats mirrors [scan.Stats] with the duration in milliseconds.
type Stats struct {
	Files       int   `json:"files"`
	Skipped     int   `json:"skipped"`
	Parsed      int   `json:"parsed"`
	Components  int   `json:"components"`
	Duplicates  int   `json:"duplicates"`
	DeadImports int   `json:"dead_imports"`
	DurationMS  int64 `json:"duration_ms"`
}

// NewDocument wraps res for export. A nil res yields a document with no
// components.
func NewDocument(project string, res *scan.Result) Document {
	info := buildinfo.Get()
	doc := Document{
		Project:     project,
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Tool: Tool{
			Name:    buildinfo.Name,
			Version: info.Version,
			Commit:  info.Commit,
		},
		Components: []component.Component{},
	}
	if res == nil {
		return doc
	}
	s := res.Stats
	doc.Stats = Stats{
		Files:       s.Files,
		Skipped:     s.Skipped,
		Parsed:      s.Parsed,
		Components:  s.Components,
		Duplicates:  s.Duplicates,
		DeadImports: s.DeadImports,
		DurationMS:  s.Duration.Milliseconds(),
	}
	if res.Components != nil {
		doc.Components = res.Components
	}
	for _, err := range multierr.Errors(res.Err) {
		doc.Errors = append(doc.Errors, err.Error())
	}
	return doc
}

// WriteJSON encodes doc as indented JSON and writes it to w.
func WriteJSON(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes doc to a JSON file at path.
func ExportJSON(doc Document, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()
	return WriteJSON(doc, f)
}
