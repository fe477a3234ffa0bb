// Package github provides an HTTP client for the GitHub API.
//
// # Overview
//
// This package looks up repository licenses and owners on GitHub
// (https://api.github.com). The scanner uses it for Go modules hosted on
// github.com, whose proxy metadata carries no license.
//
// # Usage
//
//	client := github.NewClient(backend, token, 24*time.Hour)
//
//	if owner, repo, ok := github.ModuleRepo("github.com/spf13/cobra"); ok {
//	    info, err := client.FetchRepo(ctx, owner, repo, false)
//	    // ...
//	}
//
// # Authentication
//
// A GitHub personal access token is optional but recommended to avoid rate
// limits. Without a token, the client is limited to 60 requests/hour.
// With a token, the limit is 5000 requests/hour.
//
// # URL Extraction
//
// [ExtractURL] parses GitHub repository URLs from package metadata,
// handling various URL formats (with/without .git, ssh remotes, etc.).
package github
