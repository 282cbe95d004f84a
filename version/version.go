// Package version carries the generator version. Version is written into
// every output header and compared on later runs, so it is the one value
// here that changes generator behavior.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/shimgen/errors"
)

// Set at build time via ldflags
var (
	CommitHash = "dev"
	BuildTime  = "unknown"

	// Version must stay a strict semver. Bumping it rewrites every output
	// whose header records an older version, hand edits included.
	Version = "0.6.0"
)

// Info describes the running binary
type Info struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	Modified   bool   `json:"modified,omitempty"`
	GoVersion  string `json:"go_version"`
	Platform   string `json:"platform"`
}

// Get returns the current version information. Without ldflags the
// commit comes from the VCS stamp Go embeds in module builds.
func Get() Info {
	info := Info{
		Version:    Version,
		CommitHash: CommitHash,
		BuildTime:  BuildTime,
		GoVersion:  runtime.Version(),
		Platform:   runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.CommitHash == "dev" {
					info.CommitHash = s.Value
				}
			case "vcs.time":
				if info.BuildTime == "unknown" {
					info.BuildTime = s.Value
				}
			case "vcs.modified":
				info.Modified = s.Value == "true"
			}
		}
	}
	return info
}

// Parse returns v as a semver, rejecting anything a header could not
// order reliably.
func Parse(v string) (*semver.Version, error) {
	sv, err := semver.StrictNewVersion(v)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "generator version %q", v),
			"versions are MAJOR.MINOR.PATCH, with an optional -prerelease")
	}
	return sv, nil
}

// String returns a human-readable version string
func (i Info) String() string {
	commit := i.Short()
	if i.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("shimgen %s (commit %s, built %s)", i.Version, commit, i.BuildTime)
}

// Short returns the commit hash cut to seven characters
func (i Info) Short() string {
	if len(i.CommitHash) >= 7 {
		return i.CommitHash[:7]
	}
	return i.CommitHash
}
