// Package crates provides an HTTP client for the crates.io API.
//
// # Overview
//
// This package fetches crate version metadata from crates.io
// (https://crates.io), the Rust community's package registry: license
// expression, publisher and the .crate checksum.
//
// # Usage
//
//	client := crates.NewClient(backend, 24*time.Hour)
//
//	crate, err := client.FetchCrate(ctx, "serde", "1.0.193", false)
//	if err != nil {
//	    return err
//	}
//	candidate.Apply(crate.Enrichment())
//
// # Dependency Filtering
//
// Only "normal" dependencies are included. Development dependencies,
// build dependencies, and optional dependencies are filtered out.
//
// # User-Agent
//
// The client includes a User-Agent header as requested by crates.io policy.
package crates
