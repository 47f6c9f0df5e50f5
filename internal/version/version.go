// Package version reports which posterhue build is running. Release builds
// inject the values with ldflags; other builds fall back to the VCS stamps
// the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const unknown = "unknown"

// Set at build time:
//
//	-ldflags "-X github.com/jmylchreest/posterhue/internal/version.Version=x.y.z
//	          -X github.com/jmylchreest/posterhue/internal/version.Commit=$(git rev-parse HEAD)
//	          -X github.com/jmylchreest/posterhue/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// Info describes the running build.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns the build description, filling values ldflags left unset
// from the embedded build information.
func GetInfo() Info {
	bi, _ := debug.ReadBuildInfo()
	return resolve(bi)
}

func resolve(bi *debug.BuildInfo) Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi == nil {
		return info
	}

	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	var revision, modified, stamp string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value
		case "vcs.time":
			stamp = s.Value
		}
	}
	if info.Commit == unknown && revision != "" {
		info.Commit = revision
		if modified == "true" {
			info.Commit += "-dirty"
		}
	}
	if info.Date == unknown && stamp != "" {
		info.Date = stamp
	}
	return info
}

// String returns the line printed by `posterhue version`.
func String() string {
	return GetInfo().String()
}

// String formats the build description on one line.
func (i Info) String() string {
	if i.Commit == unknown || i.Date == unknown {
		return fmt.Sprintf("posterhue version %s (%s, %s)", i.Version, i.GoVersion, i.Platform)
	}
	return fmt.Sprintf("posterhue version %s (commit: %s, built: %s, %s, %s)",
		i.Version, shortCommit(i.Commit), i.Date, i.GoVersion, i.Platform)
}

// shortCommit abbreviates a hash to eight characters, keeping a -dirty
// marker.
func shortCommit(commit string) string {
	const dirty = "-dirty"
	suffix := ""
	if len(commit) > len(dirty) && commit[len(commit)-len(dirty):] == dirty {
		commit, suffix = commit[:len(commit)-len(dirty)], dirty
	}
	if len(commit) > 8 {
		commit = commit[:8]
	}
	return commit + suffix
}

// Short returns the version alone, for --version, plugin metadata and the
// HTTP user agent.
func Short() string {
	return GetInfo().Version
}
