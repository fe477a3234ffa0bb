// Package anaconda provides an HTTP client for the anaconda.org API,
// used to enrich conda environment dependencies with their license and
// the hashes of a matching build.
package anaconda
