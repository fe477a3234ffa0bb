// Package scan is the extraction orchestrator.
//
// A [Scanner] takes a mapping of virtual paths to file contents, runs
// every file through the extractor registered for it, and returns the
// deduplicated, finalized component set:
//
//	s := scan.NewDefault(scan.Options{Enrich: true})
//	res, err := s.Scan(ctx, files)
//	if err != nil {
//	    return err // only a nil file map fails
//	}
//	for _, c := range res.Components {
//	    fmt.Println(c.PURL)
//	}
//
// Files are processed one at a time in lexical path order. Language
// files additionally run through every context pass and, when the file
// doubles as a manifest (conanfile.py), through that manifest's
// extractor. Per-file failures are logged and collected in Result.Err;
// they never abort the scan.
package scan

import (
	"context"
	"path"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"go.uber.org/multierr"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/errors"
	"github.com/matzehuels/stackscan/pkg/extract"
	"github.com/matzehuels/stackscan/pkg/extract/manifest"
	"github.com/matzehuels/stackscan/pkg/observability"
)

// Result is the outcome of one scan.
type Result struct {
	// Components are the surviving components in first-seen order.
	Components []component.Component

	Stats Stats

	// Err combines the per-file and per-dependency failures with
	// multierr. It is informational; the scan completed regardless.
	Err error
}

// Stats summarizes a scan.
type Stats struct {
	Files       int // files dispatched to an extractor
	Skipped     int // files without a registered extractor
	Parsed      int // candidates produced by extractors
	Components  int
	Duplicates  int // candidates discarded as duplicates
	DeadImports int // dead-import markers discarded
	Duration    time.Duration
}

// Scanner dispatches files to extractors. A Scanner processes one scan
// at a time; extractors keep directory context between calls.
type Scanner struct {
	registry *extract.Registry
	contexts []extract.ContextExtractor
	resolve  component.Resolver
	logger   *log.Logger
}

// New returns a scanner over registry. The context passes run over every
// language file. resolve maps raw license text at finalization and may
// be nil.
func New(registry *extract.Registry, contexts []extract.ContextExtractor, resolve component.Resolver, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{registry: registry, contexts: contexts, resolve: resolve, logger: logger}
}

// Scan extracts the components of files, keyed by slash-separated path
// relative to the project root. A nil map is the only fatal input.
func (s *Scanner) Scan(ctx context.Context, files map[string]string) (*Result, error) {
	if files == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "file map is nil")
	}
	start := time.Now()

	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	known := knownFiles(paths, files)

	var (
		res  = &Result{}
		set  = newCandidateSet()
		errs error
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if err := errors.ValidatePath(p); err != nil {
			s.logger.Warn("skipping file", "file", p, "err", err)
			errs = multierr.Append(errs, err)
			res.Stats.Skipped++
			continue
		}
		entry, ok := s.registry.Lookup(p)
		if !ok {
			s.logger.Debug("unsupported file", "file", p)
			res.Stats.Skipped++
			continue
		}

		fileStart := time.Now()
		observability.Scan().OnFileStart(ctx, p)
		cands, err := s.extractFile(ctx, entry, known, p, files[p])
		if err != nil {
			errs = multierr.Append(errs, err)
		}
		res.Stats.Files++
		res.Stats.Parsed += countPrimary(cands)
		added := set.addFile(cands)
		observability.Scan().OnFileComplete(ctx, p, added, time.Since(fileStart), err)
	}

	res.Stats.Duplicates = set.duplicates
	res.Stats.DeadImports = set.dead
	res.Components = make([]component.Component, 0, len(set.order))
	for _, c := range set.candidates() {
		res.Components = append(res.Components, component.Finalize(c, s.resolve))
	}
	res.Stats.Components = len(res.Components)
	res.Stats.Duration = time.Since(start)
	res.Err = errs

	s.logger.Info("scan complete",
		"files", res.Stats.Files,
		"components", res.Stats.Components,
		"parsed", res.Stats.Parsed,
		"duplicates", res.Stats.Duplicates,
		"dead_imports", res.Stats.DeadImports,
		"skipped", res.Stats.Skipped,
		"duration", res.Stats.Duration)
	observability.Scan().OnScanComplete(ctx, res.Stats.Files, res.Stats.Components, res.Stats.Duration, errs)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	return res, nil
}

// extractFile runs the primary extractor and, for language files, the
// manifest counterpart and the context passes.
func (s *Scanner) extractFile(ctx context.Context, entry extract.Entry, known *extract.KnownFiles, p, content string) ([]*component.Candidate, error) {
	log := s.logger.With("file", p, "extractor", entry.Name)

	primary, errs := run(ctx, entry.Extractor, known, p, content)
	if errs != nil {
		log.Error("extraction failed", "err", errs)
	}
	if entry.Kind != extract.KindLanguage {
		return primary, errs
	}

	out := primary
	if m, ok := s.registry.SourceManifest(p); ok {
		deps, err := run(ctx, m.Extractor, known, p, content)
		if err != nil {
			log.Error("manifest extraction failed", "manifest", m.Name, "err", err)
			errs = multierr.Append(errs, err)
		}
		out = append(out, deps...)
	}
	for _, cx := range s.contexts {
		extra := cx.Extract(ctx, extract.ContextInput{
			Path:    p,
			Content: content,
			Syntax:  entry.Syntax,
			Primary: primary,
		})
		if len(extra) > 0 {
			log.Debug("context pass", "pass", cx.Name(), "candidates", len(extra))
		}
		out = append(out, extra...)
	}
	return out, errs
}

func run(ctx context.Context, e extract.Extractor, known *extract.KnownFiles, p, content string) ([]*component.Candidate, error) {
	e.SetDir(extract.Dir(p))
	e.SetKnownFiles(known)
	return e.Extract(ctx, p, content)
}

// knownFiles indexes the scanned paths and registers the Go modules
// declared in the tree.
func knownFiles(paths []string, files map[string]string) *extract.KnownFiles {
	known := extract.NewKnownFiles(paths)
	for _, p := range paths {
		if path.Base(p) == "go.mod" {
			known.AddModule(extract.Dir(p), manifest.ModulePath([]byte(files[p])))
		}
	}
	return known
}

func countPrimary(cands []*component.Candidate) int {
	n := 0
	for _, c := range cands {
		if c != nil && c.Type != component.DeadImport {
			n++
		}
	}
	return n
}
