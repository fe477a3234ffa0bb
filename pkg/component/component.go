// Package component defines the dependency records produced by a scan.
//
// Extractors build [Candidate] values while reading one file. The scanner
// computes each candidate's deduplication key, discards duplicates, and
// finalizes the survivors into immutable [Component] values.
package component

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// Type is the classification of a component.
type Type int

const (
	// Unknown is the unresolved state of a fresh candidate.
	Unknown Type = iota
	// Language is a standard-library module of the source language.
	Language
	// Internal resolves to a file inside the scanned tree.
	Internal
	// External is a third-party dependency.
	External
	// DeadImport marks an import with no further use in its file.
	// Such candidates are always discarded by the scanner.
	DeadImport
)

var typeNames = [...]string{"UNKNOWN", "LANGUAGE", "INTERNAL", "EXTERNAL", "DEAD_IMPORT"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "UNKNOWN"
	}
	return typeNames[t]
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler. Unrecognized names
// decode as Unknown.
func (t *Type) UnmarshalText(b []byte) error {
	*t = Unknown
	for i, n := range typeNames {
		if strings.EqualFold(n, string(b)) {
			*t = Type(i)
		}
	}
	return nil
}

// Kind distinguishes libraries from executables invoked as subprocesses.
type Kind int

const (
	Library Kind = iota
	Application
)

func (k Kind) String() string {
	if k == Application {
		return "APPLICATION"
	}
	return "LIBRARY"
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = Library
	if strings.EqualFold(string(b), "APPLICATION") {
		*k = Application
	}
	return nil
}

// Candidate is an in-progress dependency record local to one extraction.
type Candidate struct {
	Name      string
	Group     string
	Version   string
	Type      Type
	Kind      Kind
	Publisher string
	Copyright string
	Hashes    map[string]string
	Licenses  []string
	PURL      string
	File      string

	// Binding is the local name the import introduces when it differs
	// from Name, as in "import numpy as np".
	Binding string
}

// Valid reports whether the candidate may be finalized.
func (c *Candidate) Valid() bool {
	return c != nil && strings.TrimSpace(c.Name) != ""
}

// Key returns the deduplication key.
func (c *Candidate) Key() string {
	return Hash(c.Group, c.Name, c.Version)
}

// AddHash records a digest; a later digest for the same algorithm wins.
func (c *Candidate) AddHash(alg, digest string) {
	if alg == "" || digest == "" {
		return
	}
	if c.Hashes == nil {
		c.Hashes = make(map[string]string)
	}
	c.Hashes[strings.ToLower(alg)] = digest
}

// AddLicense records a raw license string once.
func (c *Candidate) AddLicense(raw string) {
	raw = strings.TrimSpace(raw)
	if raw == "" || slices.Contains(c.Licenses, raw) {
		return
	}
	c.Licenses = append(c.Licenses, raw)
}

// Apply merges enrichment results. Empty fields leave the candidate as is.
func (c *Candidate) Apply(e Enrichment) {
	for alg, d := range e.Hashes {
		c.AddHash(alg, d)
	}
	for _, l := range e.Licenses {
		c.AddLicense(l)
	}
	if e.Publisher != "" {
		c.Publisher = e.Publisher
	}
	if e.Copyright != "" {
		c.Copyright = e.Copyright
	}
}

// Enrichment is metadata fetched for one dependency from a registry.
type Enrichment struct {
	Hashes    map[string]string `json:"hashes,omitempty"`
	Licenses  []string          `json:"licenses,omitempty"`
	Publisher string            `json:"publisher,omitempty"`
	Copyright string            `json:"copyright,omitempty"`
}

// Empty reports whether no field was populated.
func (e Enrichment) Empty() bool {
	return len(e.Hashes) == 0 && len(e.Licenses) == 0 && e.Publisher == "" && e.Copyright == ""
}

// Hash derives a deduplication key from identity fields: SHA-256 over
// the fields joined by NUL, hex encoded.
func Hash(fields ...string) string {
	h := sha256.New()
	for i, f := range fields {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// License pairs a raw license string with its resolved identifier.
// ID is empty when the text could not be resolved.
type License struct {
	Raw string `json:"raw"`
	ID  string `json:"id,omitempty"`
}

// Component is a finalized dependency.
type Component struct {
	ID           string            `json:"id"`
	Key          string            `json:"key"`
	Name         string            `json:"name"`
	Group        string            `json:"group,omitempty"`
	Version      string            `json:"version,omitempty"`
	Type         Type              `json:"type"`
	Kind         Kind              `json:"kind"`
	Publisher    string            `json:"publisher,omitempty"`
	Copyright    string            `json:"copyright,omitempty"`
	Hashes       map[string]string `json:"hashes,omitempty"`
	Licenses     []License         `json:"licenses,omitempty"`
	PURL         string            `json:"purl,omitempty"`
	File         string            `json:"file"`
	FileAnalyzed bool              `json:"file_analyzed"`
}

// Resolver maps raw license text to an identifier, or "" when unknown.
type Resolver func(raw string) string

// Finalize converts a candidate into a Component with a fresh identifier.
// Unknown classifications default to External. A nil resolve leaves
// license identifiers empty.
func Finalize(c *Candidate, resolve Resolver) Component {
	out := Component{
		ID:           uuid.NewString(),
		Key:          c.Key(),
		Name:         c.Name,
		Group:        c.Group,
		Version:      c.Version,
		Type:         c.Type,
		Kind:         c.Kind,
		Publisher:    c.Publisher,
		Copyright:    c.Copyright,
		PURL:         c.PURL,
		File:         c.File,
		FileAnalyzed: true,
	}
	if out.Type == Unknown {
		out.Type = External
	}
	if len(c.Hashes) > 0 {
		out.Hashes = make(map[string]string, len(c.Hashes))
		for k, v := range c.Hashes {
			out.Hashes[k] = v
		}
	}
	for _, raw := range c.Licenses {
		l := License{Raw: raw}
		if resolve != nil {
			l.ID = resolve(raw)
		}
		out.Licenses = append(out.Licenses, l)
	}
	return out
}

// FullName returns "group/name", or name when group is empty.
func (c Component) FullName() string {
	if c.Group == "" {
		return c.Name
	}
	return c.Group + "/" + c.Name
}
