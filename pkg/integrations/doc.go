// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// This package contains low-level API clients for fetching the metadata
// that enriches manifest dependencies: licenses, publishers, copyright
// notices and artifact hashes. Each registry has its own subpackage:
//
//   - [pypi]: Python Package Index
//   - [npm]: Node Package Manager
//   - [crates]: Rust crates.io
//   - [rubygems]: Ruby gems
//   - [packagist]: PHP Composer packages
//   - [maven]: Java Maven Central
//   - [nuget]: .NET NuGet gallery
//   - [anaconda]: conda channels on anaconda.org
//   - [goproxy]: Go Module Proxy and checksum database
//   - [github]: GitHub repository licenses
//   - [gitlab]: GitLab project licenses
//
// # Client Pattern
//
// All registry clients follow a consistent pattern:
//
//	client := pypi.NewClient(backend, 24*time.Hour)                // cache backend and TTL
//	pkg, err := client.FetchPackage(ctx, "fastapi", "0.110.0", false) // false = use cache
//	candidate.Apply(pkg.Enrichment())
//
// Clients handle:
//   - HTTP requests with retry and backoff
//   - Response caching through any [cache.Cache] backend
//   - API-specific parsing and normalization
//
// # Shared Infrastructure
//
// The [Client] type provides shared HTTP functionality used by all registry
// clients. Responses are cached as JSON under [cache.Keyer.HTTPKey] keys
// scoped by the registry namespace.
//
// # Adding a New Registry
//
// To add support for a new package registry:
//
//  1. Create a subpackage: pkg/integrations/<registry>/
//  2. Define response structs matching the API schema
//  3. Implement a Client with a Fetch method and an Enrichment conversion
//  4. Use [NewClient] for HTTP with caching
//  5. Call it from the matching manifest extractor
//
// [pypi]: github.com/matzehuels/stackscan/pkg/integrations/pypi
// [npm]: github.com/matzehuels/stackscan/pkg/integrations/npm
// [crates]: github.com/matzehuels/stackscan/pkg/integrations/crates
// [rubygems]: github.com/matzehuels/stackscan/pkg/integrations/rubygems
// [packagist]: github.com/matzehuels/stackscan/pkg/integrations/packagist
// [maven]: github.com/matzehuels/stackscan/pkg/integrations/maven
// [nuget]: github.com/matzehuels/stackscan/pkg/integrations/nuget
// [anaconda]: github.com/matzehuels/stackscan/pkg/integrations/anaconda
// [goproxy]: github.com/matzehuels/stackscan/pkg/integrations/goproxy
// [github]: github.com/matzehuels/stackscan/pkg/integrations/github
// [gitlab]: github.com/matzehuels/stackscan/pkg/integrations/gitlab
// [cache.Cache]: github.com/matzehuels/stackscan/pkg/cache.Cache
// [cache.Keyer.HTTPKey]: github.com/matzehuels/stackscan/pkg/cache.Keyer
package integrations
