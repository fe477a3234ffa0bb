// Package lang implements import extractors for source languages.
//
// Every language is a [Grammar]: one regular expression with named
// groups "from" and "imports", a function splitting a match into
// references, and the rules that classify a reference. The shared
// [Extractor] turns matches into candidates:
//
//   - INTERNAL when the reference resolves to a file of the scanned tree
//   - LANGUAGE when the language's standard-library documentation answers
//     200 for it (probes of one file run as one query batch)
//   - EXTERNAL otherwise, including when the probe fails or times out
package lang

import (
	"context"
	"regexp"
	"strings"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/extract"
	"github.com/matzehuels/stackscan/pkg/query"
)

// Ref is one imported symbol.
type Ref struct {
	// Group is the namespace in the language's own notation ("foo.bar",
	// "std::io", "github.com/x"). Name is the imported symbol.
	Group string
	Name  string

	// Binding is the local alias, if any, or [extract.Wildcard].
	Binding string

	// Path is Group in slash form, resolved against the file's directory
	// for relative imports. Internal checks use it.
	Path string

	// Relative is set for imports written relative to the current file.
	Relative bool
}

// Grammar describes one language.
type Grammar struct {
	Name       string
	Extensions []string

	// Pattern matches one import statement. It must define the named
	// group "imports" and may define "from".
	Pattern *regexp.Regexp

	// Refs splits a match into references. groups holds the named groups
	// of the match; dir is the directory of the file.
	Refs func(groups map[string]string, dir string) []Ref

	// Internal reports whether ref resolves inside the scanned tree.
	// Defaults to KnownFiles.Match(ref.Path, ref.Name).
	Internal func(k *extract.KnownFiles, ref Ref) bool

	// StdlibURL returns the documentation URL probed for ref under base,
	// or "" when ref cannot be a standard-library symbol.
	StdlibURL func(base string, ref Ref) string

	// DefaultStdlibBase is the documentation root used in production.
	DefaultStdlibBase string

	CommentPrefixes []string
	BindsNames      bool
}

// Extractor is the language extractor for one [Grammar].
type Extractor struct {
	extract.Base
	g          *Grammar
	stdlibBase string
}

// New returns an extractor for g. An empty stdlibBase selects the
// grammar's default documentation root.
func New(g *Grammar, env extract.Env, stdlibBase string) *Extractor {
	if stdlibBase == "" {
		stdlibBase = g.DefaultStdlibBase
	}
	return &Extractor{
		Base:       extract.NewBase(env),
		g:          g,
		stdlibBase: strings.TrimSuffix(stdlibBase, "/"),
	}
}

// Grammar returns the extractor's grammar.
func (e *Extractor) Grammar() *Grammar { return e.g }

// Syntax implements extract.LanguageExtractor.
func (e *Extractor) Syntax() extract.Syntax {
	return extract.Syntax{
		CommentPrefixes: e.g.CommentPrefixes,
		BindsNames:      e.g.BindsNames,
		IsImport: func(line string) bool {
			return e.g.Pattern.MatchString(line)
		},
	}
}

// Extract implements extract.Extractor.
func (e *Extractor) Extract(ctx context.Context, path, content string) ([]*component.Candidate, error) {
	var (
		out  []*component.Candidate
		pool = e.Env.NewPool()
	)
	names := e.g.Pattern.SubexpNames()
	for _, m := range e.g.Pattern.FindAllStringSubmatch(content, -1) {
		groups := make(map[string]string, len(names))
		for i, n := range names {
			if n != "" && m[i] != "" {
				groups[n] = m[i]
			}
		}
		for _, ref := range e.g.Refs(groups, e.Dir()) {
			if ref.Name == "" {
				continue
			}
			c := &component.Candidate{
				Name:    ref.Name,
				Group:   ref.Group,
				Binding: ref.Binding,
				File:    path,
			}
			out = append(out, c)
			e.classify(pool, c, ref)
		}
	}
	pool.Run(ctx)

	for _, c := range out {
		if c.Type == component.Unknown {
			c.Type = component.External
		}
	}
	return out, nil
}

// classify resolves INTERNAL immediately and queues the LANGUAGE probe.
func (e *Extractor) classify(pool *query.Pool, c *component.Candidate, ref Ref) {
	internal := e.g.Internal
	if internal == nil {
		internal = defaultInternal
	}
	if internal(e.Known(), ref) {
		c.Type = component.Internal
		return
	}
	if e.g.StdlibURL == nil || e.Env.Prober == nil || ref.Relative {
		return
	}
	url := e.g.StdlibURL(e.stdlibBase, ref)
	if url == "" {
		return
	}
	pool.Go(url, func(ctx context.Context) (func(), error) {
		if !e.Exists(ctx, url) {
			return nil, nil
		}
		return func() { c.Type = component.Language }, nil
	})
}

func defaultInternal(k *extract.KnownFiles, ref Ref) bool {
	return k.Match(ref.Path, ref.Name)
}

// splitList splits a comma-separated import list, dropping grouping
// punctuation, line continuations and empty items.
func splitList(s string) []string {
	s = strings.NewReplacer("(", " ", ")", " ", "{", " ", "}", " ", "\\\n", " ").Replace(s)
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.Join(strings.Fields(item), " ")
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// cutAlias splits "name <kw> alias" into name and alias.
func cutAlias(item, kw string) (string, string) {
	if before, after, ok := strings.Cut(item, " "+kw+" "); ok {
		return strings.TrimSpace(before), strings.TrimSpace(after)
	}
	return item, ""
}

// splitLast splits a separated path at its final separator.
func splitLast(p, sep string) (string, string) {
	if i := strings.LastIndex(p, sep); i >= 0 {
		return p[:i], p[i+len(sep):]
	}
	return "", p
}

// top returns the first segment of p.
func top(p, sep string) string {
	head, _, _ := strings.Cut(p, sep)
	return head
}
