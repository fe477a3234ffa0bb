// Package extract defines the contract shared by all extractors and the
// registry the scanner dispatches files through.
//
// Two kinds of extractor exist:
//
//   - language extractors read import statements from source files and
//     classify each imported symbol as INTERNAL, LANGUAGE or EXTERNAL
//   - manifest extractors read package-manager files and enrich each
//     declared dependency from its registry
//
// The kind is fixed when an extractor is registered (see [Entry]). The
// scanner never inspects extractor types at run time.
package extract

import (
	"context"
	"net/http"
	"path"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/httputil"
	"github.com/matzehuels/stackscan/pkg/query"
)

// Extractor turns one file into candidate components.
//
// The scanner calls SetDir and SetKnownFiles before every Extract. Apart
// from that directory context an extractor keeps no state across files.
type Extractor interface {
	SetDir(dir string)
	SetKnownFiles(files *KnownFiles)
	Extract(ctx context.Context, path, content string) ([]*component.Candidate, error)
}

// Syntax describes the surface of a source language that context passes
// need to know about.
type Syntax struct {
	// CommentPrefixes start single-line comments.
	CommentPrefixes []string

	// IsImport reports whether a line is an import statement.
	IsImport func(line string) bool

	// BindsNames is true when an import introduces a name that code must
	// mention to use the import. Languages whose imports act on the whole
	// file (C includes, C# usings, Go packages used by a different name)
	// report false and are skipped by the dead-import pass.
	BindsNames bool
}

// Wildcard is the binding of imports that bring every exported name of a
// module into scope ("from m import *", "import a.b.*").
const Wildcard = "*"

// LanguageExtractor is an Extractor for a source language.
type LanguageExtractor interface {
	Extractor
	Syntax() Syntax
}

// Kind tags a registry entry.
type Kind int

const (
	KindLanguage Kind = iota
	KindManifest
)

func (k Kind) String() string {
	if k == KindManifest {
		return "manifest"
	}
	return "language"
}

// Entry is a registered extractor together with its kind.
type Entry struct {
	Kind      Kind
	Name      string
	Extractor Extractor
	Syntax    Syntax // KindLanguage only
}

// Language registers a language extractor.
func Language(name string, e LanguageExtractor) Entry {
	return Entry{Kind: KindLanguage, Name: name, Extractor: e, Syntax: e.Syntax()}
}

// Manifest registers a manifest extractor.
func Manifest(name string, e Extractor) Entry {
	return Entry{Kind: KindManifest, Name: name, Extractor: e}
}

// ContextExtractor is a post-pass over a language extractor's output.
// It only ever appends candidates.
type ContextExtractor interface {
	Name() string
	Extract(ctx context.Context, in ContextInput) []*component.Candidate
}

// ContextInput is what a context pass sees of one file.
type ContextInput struct {
	Path    string
	Content string
	Syntax  Syntax
	Primary []*component.Candidate
}

// Env carries the services extractors share within one scan.
type Env struct {
	Logger *log.Logger

	// Client performs registry lookups and raw queries.
	Client *http.Client

	// Prober answers standard-library existence checks. A nil Prober
	// disables LANGUAGE classification.
	Prober *httputil.Prober

	// Query configures the per-extraction query batches.
	Query query.Options

	// Enrich enables registry lookups for manifest dependencies.
	Enrich bool
}

// WithDefaults returns a copy of Env with zero values replaced by defaults.
func (e Env) WithDefaults() Env {
	env := e
	if env.Logger == nil {
		env.Logger = log.Default()
	}
	if env.Client == nil {
		env.Client = httputil.NewClient(httputil.DefaultConnectTimeout)
	}
	if env.Query.Logger == nil {
		env.Query.Logger = env.Logger
	}
	env.Query = env.Query.WithDefaults()
	return env
}

// NewPool returns a query pool configured from the environment.
func (e Env) NewPool() *query.Pool {
	return query.NewPool(e.Query)
}

// Base implements the directory context part of [Extractor] and the
// shared helpers. Extractors embed it.
type Base struct {
	Env   Env
	dir   string
	known *KnownFiles
}

// NewBase returns a Base over env with defaults applied.
func NewBase(env Env) Base {
	return Base{Env: env.WithDefaults(), known: NewKnownFiles(nil)}
}

// SetDir sets the directory of the file being extracted.
func (b *Base) SetDir(dir string) {
	if dir == "." {
		dir = ""
	}
	b.dir = dir
}

// Dir returns the current directory context ("" for the project root).
func (b *Base) Dir() string { return b.dir }

// SetKnownFiles sets the read-only set of scanned paths.
func (b *Base) SetKnownFiles(files *KnownFiles) {
	if files == nil {
		files = NewKnownFiles(nil)
	}
	b.known = files
}

// Known returns the known-file set.
func (b *Base) Known() *KnownFiles { return b.known }

// Query issues a single GET with the connect-bounded client. The caller
// closes the body. Timeouts wrap [httputil.ErrTimeout].
func (b *Base) Query(ctx context.Context, url string) (*http.Response, error) {
	return httputil.Get(ctx, b.Env.Client, url)
}

// Exists reports whether url answers 200. Without a Prober, or on any
// failure, it reports false.
func (b *Base) Exists(ctx context.Context, url string) bool {
	if b.Env.Prober == nil || url == "" {
		return false
	}
	ok, err := b.Env.Prober.Exists(ctx, url)
	if err != nil {
		b.Env.Logger.Debug("probe failed", "url", url, "err", err)
		return false
	}
	return ok
}

// Hash returns the deduplication key of c.
func Hash(c *component.Candidate) string {
	return c.Key()
}

// Dir returns the directory part of a virtual path, "" for root files.
func Dir(p string) string {
	d := path.Dir(p)
	if d == "." || d == "/" {
		return ""
	}
	return d
}
