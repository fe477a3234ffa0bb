// Package buildinfo reports which stackscan build produced a document.
//
// Release builds stamp the variables below through the linker:
//
//	go build -ldflags "-X github.com/matzehuels/stackscan/pkg/buildinfo.Version=v0.4.0 \
//	    -X github.com/matzehuels/stackscan/pkg/buildinfo.Commit=$(git rev-parse --short HEAD) \
//	    -X github.com/matzehuels/stackscan/pkg/buildinfo.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// Binaries built with go install carry no stamp; [Get] then falls back to
// the module version and VCS settings recorded by the toolchain.
package buildinfo

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Name is the tool name recorded in exported documents.
const Name = "stackscan"

// Linker-stamped values.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info describes one build.
type Info struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
	Modified  bool // built from a dirty work tree
}

// Get returns the stamped values, filling unstamped ones from the
// toolchain's embedded build information when available.
func Get() Info {
	info := Info{Version: Version, Commit: Commit, Date: Date, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	return fill(info, bi)
}

func fill(info Info, bi *debug.BuildInfo) Info {
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "none" {
				info.Commit = s.Value
				if len(info.Commit) > 12 {
					info.Commit = info.Commit[:12]
				}
			}
		case "vcs.time":
			if info.Date == "unknown" {
				info.Date = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// Template returns the cobra --version template.
func Template() string {
	info := Get()
	return fmt.Sprintf("{{.Name}} %s (commit %s, built %s)\n", info.Version, info.Commit, info.Date)
}
