// Package goproxy provides an HTTP client for the Go module proxy and
// the Go checksum database.
//
// # Overview
//
// This package resolves module versions through the Go Module Proxy
// (https://proxy.golang.org) and reads the module zip hash from the
// checksum database (https://sum.golang.org).
//
// # Usage
//
//	client := goproxy.NewClient(backend, 24*time.Hour)
//
//	mod, err := client.FetchModule(ctx, "github.com/spf13/cobra", "v1.8.0", false)
//	if err != nil {
//	    return err
//	}
//	candidate.Apply(mod.Enrichment())
//
// # Lookups
//
// The client performs up to three requests:
//  1. @latest endpoint when no version is given
//  2. .mod endpoint to read direct dependencies
//  3. sumdb lookup endpoint for the "h1:" hash
//
// Some modules don't have a go.mod file (pre-modules or minimal modules).
// In this case, dependencies will be empty.
//
// # Path Escaping
//
// Module paths and versions are escaped with golang.org/x/mod/module
// (uppercase becomes !lowercase).
package goproxy
