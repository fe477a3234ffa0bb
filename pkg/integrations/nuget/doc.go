// Package nuget provides an HTTP client for the NuGet v3 API.
//
// Package metadata comes from the .nuspec published in the flat container
// (https://api.nuget.org/v3-flatcontainer): authors, copyright, and the
// license expression or legacy license URL. The .nupkg hash is read from
// the package's catalog entry, reached through its registration leaf.
//
//	client := nuget.NewClient(backend, 24*time.Hour)
//	pkg, err := client.FetchPackage(ctx, "Newtonsoft.Json", "13.0.3", false)
package nuget
