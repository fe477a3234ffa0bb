// Package usage implements the context passes the scanner runs over
// source files after import extraction.
//
// [DeadImports] flags imports that nothing in the file refers to.
// [Subprocesses] surfaces external programs a file shells out to.
// Both only append candidates; the primary extractor's output is never
// changed.
package usage

import "github.com/matzehuels/stackscan/pkg/extract"

// Defaults returns the context passes run for every language file.
func Defaults() []extract.ContextExtractor {
	return []extract.ContextExtractor{DeadImports{}, Subprocesses{}}
}
