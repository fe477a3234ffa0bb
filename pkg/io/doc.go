// Package io reads and writes scan results as JSON documents.
//
// The document is the hand-off format between a scan and whatever
// builds the final SBOM from it:
//
//	{
//	  "project": "acme-api",
//	  "generated_at": "2026-01-02T15:04:05Z",
//	  "tool": {"name": "stackscan", "version": "v0.3.0", "commit": "abc123"},
//	  "stats": {"files": 12, "components": 31, "duplicates": 4, ...},
//	  "components": [
//	    {
//	      "id": "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
//	      "key": "9f86d08...",
//	      "name": "requests",
//	      "type": "EXTERNAL",
//	      "kind": "LIBRARY",
//	      "purl": "pkg:pypi/requests@2.31.0",
//	      "licenses": [{"raw": "Apache 2.0", "id": "Apache-2.0"}],
//	      "file": "requirements.txt",
//	      "file_analyzed": true
//	    }
//	  ],
//	  "errors": ["pom.xml: unresolved property ${jackson.version}"]
//	}
//
// Components keep the order the scanner emitted them in. Types and kinds
// are written by name.
//
// # Export
//
// Use [NewDocument] to wrap a scan result, then [WriteJSON] or
// [ExportJSON]:
//
//	doc := io.NewDocument("acme-api", res)
//	if err := io.ExportJSON(doc, "sbom-input.json"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Import
//
// [ReadJSON] and [ImportJSON] decode a document and validate that every
// component has an identifier and a name and that identifiers are
// unique. Violations are reported together as INVALID_INPUT errors.
package io
