// Package version carries the build identity of the typetrail binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const (
	develVersion = "(devel)"
	settingRev   = "vcs.revision"
	settingTime  = "vcs.time"
)

// Set at link time with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// InitBinaryVersion fills values left at their defaults from the embedded
// module build information.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != develVersion {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case settingRev:
			if Commit == "none" && setting.Value != "" {
				Commit = setting.Value
			}
		case settingTime:
			if Date == "unknown" && setting.Value != "" {
				Date = setting.Value
			}
		}
	}
}

// String formats the build identity for display.
func String() string {
	return fmt.Sprintf("typetrail %s (commit: %s, built: %s)", Version, Commit, Date)
}
