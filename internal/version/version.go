package version

import (
	"fmt"
	"runtime/debug"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Info returns version information populated via -ldflags. When ldflags are
// absent, the commit falls back to the vcs revision embedded by the toolchain.
func Info() (v, c, d string) {
	c = commit
	if c == "unknown" {
		if rev := vcsRevision(); rev != "" {
			c = rev
		}
	}
	return version, c, date
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			return setting.Value
		}
	}
	return ""
}

func String() string {
	v, c, d := Info()
	return fmt.Sprintf("pos version=%s commit=%s date=%s", v, c, d)
}
