// SPDX-License-Identifier: MIT
//
// Package build exposes metadata embedded into the abk binary at link time:
//
//	go build -ldflags "-X audiobackend/pkg/build.buildName=abk \
//	  -X audiobackend/pkg/build.buildVersion=0.3.0 ..."
//
// Development builds run without ldflags and report "dev" values.
package build

import (
	"errors"
	"fmt"
	"runtime"
)

const description = "Inspect PortAudio devices, monitor input levels and probe WAV files"

// ErrMissingFlags is returned by Initialize when the binary was built
// without the full set of ldflags.
var ErrMissingFlags = errors.New("build metadata missing")

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Populated by -ldflags.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = devFlags()
)

func devFlags() *ldFlags {
	return &ldFlags{
		Name:        "abk",
		Description: description,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
}

// Initialize copies the ldflags values into the build information. When
// any value is missing the development defaults stay in place and the
// returned error wraps ErrMissingFlags.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("%w: BuildName is required", ErrMissingFlags)
	}
	if buildTime == "" {
		return fmt.Errorf("%w: BuildTime is required", ErrMissingFlags)
	}
	if buildCommit == "" {
		return fmt.Errorf("%w: BuildCommit is required", ErrMissingFlags)
	}
	if buildVersion == "" {
		return fmt.Errorf("%w: BuildVersion is required", ErrMissingFlags)
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// VersionString formats the build information for the version command.
func (f *ldFlags) VersionString() string {
	return fmt.Sprintf("%s %s (commit %s, built %s, %s/%s)",
		f.Name, f.Version, f.Commit, f.Time, runtime.GOOS, runtime.GOARCH)
}
