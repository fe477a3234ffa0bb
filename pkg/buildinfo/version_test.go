package buildinfo

import (
	"runtime/debug"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFill(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	tests := []struct {
		name string
		in   Info
		want Info
	}{
		{
			name: "unstamped",
			in:   Info{Version: "dev", Commit: "none", Date: "unknown"},
			want: Info{Version: "v0.4.0", Commit: "0123456789ab", Date: "2026-10-01T12:00:00Z", Modified: true},
		},
		{
			name: "stamped wins",
			in:   Info{Version: "v1.0.0", Commit: "abc", Date: "today"},
			want: Info{Version: "v1.0.0", Commit: "abc", Date: "today", Modified: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, fill(tt.in, bi)); diff != "" {
				t.Errorf("fill mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFillDevelBuild(t *testing.T) {
	got := fill(Info{Version: "dev", Commit: "none", Date: "unknown"}, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})
	if got.Version != "dev" || got.Commit != "none" {
		t.Errorf("fill = %+v, want unstamped defaults", got)
	}
}
