// Package maven provides an HTTP client for Maven Central.
//
// # Overview
//
// This package fetches artifact metadata from Maven Central: the POM of a
// version (licenses, organization, developers, dependencies) and the
// published .sha1 checksum of its jar. The search API
// (https://search.maven.org) is consulted only when no version is given.
//
// # Usage
//
//	client := maven.NewClient(backend, 24*time.Hour)
//
//	artifact, err := client.FetchArtifact(ctx, "com.google.guava:guava", "32.1.3-jre", false)
//	if err != nil {
//	    return err
//	}
//	candidate.Apply(artifact.Enrichment())
//
// # Dependency Filtering
//
// Dependencies exclude test, provided and optional scopes, and entries
// whose coordinates still hold unresolved ${...} properties.
package maven
