package main

import (
	"runtime/debug"

	"github.com/marcus/quotes/cmd"
)

// Version is stamped by release builds with -ldflags "-X main.Version=v1.2.3".
var Version = "dev"

// resolveVersion prefers a stamped Version, then the module version recorded
// by `go install`, then the VCS revision of a local build.
func resolveVersion(stamped string, info *debug.BuildInfo) string {
	if stamped != "" && stamped != "dev" {
		return stamped
	}
	if info == nil {
		return stamped
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}

	var rev string
	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return stamped
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	v := "devel+" + rev
	if dirty {
		v += "+dirty"
	}
	return v
}

func main() {
	info, _ := debug.ReadBuildInfo()
	cmd.SetVersion(resolveVersion(Version, info))
	cmd.Execute()
}
