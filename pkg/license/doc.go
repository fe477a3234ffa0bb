// Package license resolves free-form license text to SPDX identifiers.
//
// Resolution is a best-effort heuristic over an embedded vocabulary of
// identifiers, their long names and common aliases:
//
//  1. an exact identifier (case-insensitive) is returned unchanged
//  2. an exact long name or alias maps to its identifier
//  3. the text is tokenized and stop words are dropped; a version number,
//     if present, narrows the candidates to licenses carrying that version
//  4. a lone family token ("mit", "bsd", "apache", ...) without a version
//     maps to a default variant
//  5. a token that is itself an identifier is returned
//  6. otherwise the candidate sharing the most tokens wins and an
//     "assumed" warning is logged
//
// When nothing matches, Resolve returns "" and logs a warning. It never
// fails.
package license
