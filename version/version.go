// Package version reports build metadata for the assetpipe binary.
package version

import (
	"runtime/debug"
	"time"
)

// Version is set at build time with -ldflags "-X .../version.Version=v1.2.3".
var Version = "dev"

// Info is the resolved build metadata.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	Dirty     bool      `json:"dirty"`
	GoVersion string    `json:"go_version"`
	BuildTime time.Time `json:"build_time"`
}

// Build resolves version information from the ldflags variable and the
// binary's embedded VCS metadata.
func Build() Info {
	info := Info{Version: Version}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs.revision":
			info.Commit = setting.Value
			if len(info.Commit) > 7 {
				info.Commit = info.Commit[:7]
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				info.BuildTime = t
			}
		}
	}
	return info
}

// Short returns a compact version string for --version output.
func Short() string {
	info := Build()
	s := info.Version
	if info.Commit != "" {
		s += "-" + info.Commit
	}
	if info.Dirty {
		s += "-dirty"
	}
	return s
}

// String returns a detailed version line.
func (i Info) String() string {
	s := i.Version
	if i.Commit != "" {
		s += "-" + i.Commit
	}
	if i.Dirty {
		s += "-dirty"
	}
	if i.GoVersion != "" {
		s += " (" + i.GoVersion
		if !i.BuildTime.IsZero() {
			s += ", built " + i.BuildTime.Format(time.RFC3339)
		}
		s += ")"
	}
	return s
}
