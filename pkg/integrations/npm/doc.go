// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package fetches package metadata from the npm registry
// (https://registry.npmjs.org). Documents are large, so only the fields
// of the requested version are read, with gjson.
//
// # Usage
//
//	client := npm.NewClient(backend, 24*time.Hour)
//
//	pkg, err := client.FetchPackage(ctx, "express", "^4.18.2", false)
//	if err != nil {
//	    return err
//	}
//	candidate.Apply(pkg.Enrichment())
//
// Ranges resolve to their lower bound; wildcard ranges to the latest
// version. The dist.shasum and dist.integrity fields become sha1 and
// sha512 hashes.
package npm
