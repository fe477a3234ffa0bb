package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/errors"
)

// ReadJSON decodes a document from r.
//
// Every component must carry an id and a name, and ids must be unique.
// All violations are returned together; the decoded document is returned
// alongside them so callers can still inspect it. ReadJSON does not
// close r.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode document")
	}

	var errs error
	seen := make(map[string]bool, len(doc.Components))
	for i, c := range doc.Components {
		switch {
		case c.ID == "":
			errs = multierr.Append(errs, errors.New(errors.ErrCodeInvalidInput, "component %d: missing id", i))
		case seen[c.ID]:
			errs = multierr.Append(errs, errors.New(errors.ErrCodeInvalidInput, "component %d: duplicate id %s", i, c.ID))
		}
		seen[c.ID] = true
		if c.Name == "" {
			errs = multierr.Append(errs, errors.New(errors.ErrCodeInvalidInput, "component %d: missing name", i))
		}
	}
	return &doc, errs
}

// ImportJSON reads a document from the JSON file at path.
func ImportJSON(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
