package main

import (
	"runtime/debug"
	"testing"
)

func TestResolveVersion(t *testing.T) {
	build := func(main string, settings ...debug.BuildSetting) *debug.BuildInfo {
		return &debug.BuildInfo{Main: debug.Module{Version: main}, Settings: settings}
	}
	rev := debug.BuildSetting{Key: "vcs.revision", Value: "0123456789abcdef"}
	dirty := debug.BuildSetting{Key: "vcs.modified", Value: "true"}

	tests := []struct {
		name    string
		stamped string
		info    *debug.BuildInfo
		want    string
	}{
		{"stamped wins", "v1.2.3", build("v0.9.0", rev), "v1.2.3"},
		{"no build info", "dev", nil, "dev"},
		{"go install", "dev", build("v0.4.0"), "v0.4.0"},
		{"local build", "dev", build("(devel)", rev), "devel+0123456789ab"},
		{"dirty tree", "dev", build("(devel)", rev, dirty), "devel+0123456789ab+dirty"},
		{"no vcs info", "dev", build("(devel)"), "dev"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveVersion(tt.stamped, tt.info); got != tt.want {
				t.Errorf("resolveVersion() = %q, want %q", got, tt.want)
			}
		})
	}
}
