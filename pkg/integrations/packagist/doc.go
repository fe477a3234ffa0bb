// Package packagist provides an HTTP client for the Packagist API.
//
// # Overview
//
// This package fetches package metadata from Packagist (https://packagist.org),
// the main Composer repository for PHP packages, through the Composer v2
// metadata endpoint (/p2/vendor/package.json).
//
// # Usage
//
//	client := packagist.NewClient(backend, 24*time.Hour)
//
//	pkg, err := client.FetchPackage(ctx, "symfony/console", "v6.3.0", false)
//	if err != nil {
//	    return err
//	}
//	candidate.Apply(pkg.Enrichment())
//
// # Minified Metadata
//
// Composer v2 metadata lists versions newest first and repeats only the
// fields that changed from the previous entry. The client expands the
// list before selecting a version.
package packagist
