// Package pypi provides an HTTP client for the Python Package Index API.
//
// # Overview
//
// This package fetches release metadata from PyPI (https://pypi.org), the
// official repository for Python packages. Manifest extractors use it to
// enrich requirements with licenses, authors and distribution digests.
//
// # Usage
//
//	client := pypi.NewClient(backend, 24*time.Hour)
//
//	pkg, err := client.FetchPackage(ctx, "fastapi", "0.104.1", false)  // false = use cache
//	if err != nil {
//	    return err
//	}
//	candidate.Apply(pkg.Enrichment())
//
// An empty version selects the latest release.
//
// # PackageInfo
//
// [Client.FetchPackage] returns a [PackageInfo] containing:
//
//   - Name, Version: Package identity
//   - Dependencies: Direct runtime dependencies (extras/dev filtered out)
//   - License, Author: Package metadata
//   - Digests: sha256/md5/blake2b-256 of the source distribution
//
// # Caching
//
// Responses are cached in the [cache.Cache] passed to [NewClient]. Pass
// refresh=true to [Client.FetchPackage] to bypass the cache.
//
// Package names are normalized following PEP 503.
//
// [cache.Cache]: github.com/matzehuels/stackscan/pkg/cache.Cache
package pypi
