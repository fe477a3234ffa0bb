package usage

import (
	"context"
	"strings"
	"unicode"

	"github.com/matzehuels/stackscan/pkg/component"
	"github.com/matzehuels/stackscan/pkg/extract"
)

// DeadImports flags imports whose name occurs only once in the file, at
// the import itself. A candidate imported under a local binding is dead
// only when the binding is unused as well. Wildcard imports are never
// flagged.
//
// Each flagged import yields a marker of type [component.DeadImport]
// with the same identity as the import, so the scanner can drop both.
type DeadImports struct{}

// Name implements extract.ContextExtractor.
func (DeadImports) Name() string { return "dead-imports" }

// Extract implements extract.ContextExtractor.
func (DeadImports) Extract(_ context.Context, in extract.ContextInput) []*component.Candidate {
	if !in.Syntax.BindsNames || len(in.Primary) == 0 {
		return nil
	}
	counts := countTokens(in.Content)
	occurrences := func(s string) int {
		if isIdent(s) {
			return counts[s]
		}
		return strings.Count(in.Content, s)
	}

	var out []*component.Candidate
	for _, c := range in.Primary {
		if c.Type == component.DeadImport || c.Binding == extract.Wildcard {
			continue
		}
		if c.Name == "" || strings.ContainsFunc(c.Name, unicode.IsSpace) {
			continue
		}
		if occurrences(c.Name) > 1 {
			continue
		}
		if c.Binding != "" && occurrences(c.Binding) > 1 {
			continue
		}
		out = append(out, &component.Candidate{
			Name:    c.Name,
			Group:   c.Group,
			Version: c.Version,
			Type:    component.DeadImport,
			File:    c.File,
		})
	}
	return out
}

// countTokens counts identifier tokens across all lines.
func countTokens(content string) map[string]int {
	counts := make(map[string]int)
	for _, tok := range strings.FieldsFunc(content, func(r rune) bool { return !isIdentRune(r) }) {
		counts[tok]++
	}
	return counts
}

func isIdent(s string) bool {
	return s != "" && !strings.ContainsFunc(s, func(r rune) bool { return !isIdentRune(r) })
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
