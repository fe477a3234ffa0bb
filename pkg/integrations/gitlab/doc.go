// Package gitlab provides an HTTP client for the GitLab API.
//
// # Overview
//
// This package looks up project licenses on GitLab, complementing the
// GitHub provider for Go modules hosted on gitlab.com.
//
// # Usage
//
//	client := gitlab.NewClient(backend, token, 24*time.Hour)
//
//	if path, ok := gitlab.ModuleProject(modulePath); ok {
//	    info, err := client.FetchProject(ctx, path, false)
//	    // ...
//	}
//
// # Authentication
//
// A GitLab personal access token is optional. Without a token, only
// public projects can be accessed.
package gitlab
