// Package manifest implements extractors for package-manager manifests.
//
// Every manifest format is a [Format]: a parse function that turns file
// content into [Dependency] entries with resolved coordinates. The shared
// [Extractor] builds a package URL for each entry, turns it into an
// EXTERNAL candidate and, when enrichment is enabled, queues one registry
// lookup per dependency on a query batch for the whole file.
//
// Failures stay as local as possible. A malformed entry is skipped and
// logged; a dependency whose package URL cannot be built is skipped; a
// failed registry lookup leaves the candidate's metadata empty.
package manifest

import (
	"context"
	"strings"

	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/errors"
	"github.com/matzehuels/stackscan/pkg/extract"
	"github.com/matzehuels/stackscan/pkg/purl"
)

// Dependency is one declared dependency with its coordinates resolved.
type Dependency struct {
	// Section is the manifest section the entry came from
	// ("dependencies", "devDependencies", "pip"). Entries of different
	// sections never collide within one file.
	Section string
	PURL    purl.PackageURL
}

// Key identifies the entry within its manifest.
func (d Dependency) Key() string {
	name := d.PURL.Name
	if d.PURL.Namespace != "" {
		name = d.PURL.Namespace + "/" + name
	}
	return d.Section + ":" + name
}

// Format parses one manifest format.
type Format struct {
	Name string

	// Parse returns the declared dependencies in document order. Entries
	// that cannot be read are reported through the error, combined with
	// multierr, alongside the entries that could; a nil slice with an
	// error means the document as a whole is unreadable.
	Parse func(path, content string) ([]Dependency, error)
}

// Extractor is the manifest extractor for one [Format].
type Extractor struct {
	extract.Base
	f       Format
	clients *Clients
}

// New returns an extractor for f. A nil clients disables enrichment.
func New(f Format, env extract.Env, clients *Clients) *Extractor {
	return &Extractor{Base: extract.NewBase(env), f: f, clients: clients}
}

// Format returns the extractor's format.
func (e *Extractor) Format() Format { return e.f }

// Extract implements extract.Extractor.
func (e *Extractor) Extract(ctx context.Context, path, content string) ([]*component.Candidate, error) {
	log := e.Env.Logger.With("file", path, "format", e.f.Name)

	deps, errs := e.f.Parse(path, content)
	for _, err := range multierr.Errors(errs) {
		log.Error("skipping manifest entry", "err", err)
	}
	if deps == nil {
		return nil, errs
	}

	var (
		out  []*component.Candidate
		pool = e.Env.NewPool()
		seen = make(map[string]bool, len(deps))
	)
	for _, d := range deps {
		if seen[d.Key()] {
			continue
		}
		seen[d.Key()] = true

		id, err := purl.Build(d.PURL)
		if err != nil {
			log.Error("skipping dependency", "section", d.Section, "err", err)
			errs = multierr.Append(errs, err)
			continue
		}
		c := &component.Candidate{
			Name:    d.PURL.Name,
			Group:   d.PURL.Namespace,
			Version: d.PURL.Version,
			Type:    component.External,
			Kind:    component.Library,
			PURL:    id,
			File:    path,
		}
		out = append(out, c)

		if !e.Env.Enrich {
			continue
		}
		if fetch, ok := e.clients.Fetch(d.PURL); ok {
			pool.Enrich(c, id, fetch)
		}
	}
	if stats := pool.Run(ctx); stats.Failed > 0 {
		log.Warn("enrichment incomplete", "dependencies", stats.Tasks, "failed", stats.Failed, "abandoned", stats.Abandoned)
	}
	return out, errs
}

// entryError reports one unreadable manifest entry.
func entryError(path string, format string, args ...any) error {
	err := errors.New(errors.ErrCodeInvalidManifest, format, args...)
	err.Message = path + ": " + err.Message
	return err
}

// documentError reports a manifest that cannot be parsed at all.
func documentError(path string, cause error) error {
	return errors.Wrap(errors.ErrCodeInvalidManifest, cause, "parse %s", path)
}

// pinned reduces a declared version to the version it names: operators
// and a "v" prefix are dropped and the lower bound of a range is kept.
// Wildcards, tags, URLs and local references yield "".
func pinned(v string) string {
	v = strings.TrimSpace(v)
	if i := strings.IndexAny(v, ",|"); i >= 0 {
		v = v[:i]
	}
	v = strings.TrimLeft(v, "^~=>< v")
	if f := strings.Fields(v); len(f) > 0 {
		v = f[0]
	}
	if v == "" || v[0] < '0' || v[0] > '9' {
		return ""
	}
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r == '.' || r == '-' || r == '+' || r == '_':
		default:
			return ""
		}
	}
	return strings.TrimSuffix(v, ".")
}

// splitName splits "ns/name" at the last slash.
func splitName(s string) (ns, name string) {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}
