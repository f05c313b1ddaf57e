package main

import (
	"runtime"

	"github.com/inferloop/healthtrack/pkg/constants"
)

// Set via -ldflags at build time, e.g.
// -X main.Version=1.2.0 -X main.GitCommit=$(git rev-parse --short HEAD)
var (
	Version   = ""
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = runtime.Version()
	Platform  = runtime.GOOS + "/" + runtime.GOARCH
)

type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// appVersion is the linked Version, or the release constant when none was set
func appVersion() string {
	if Version == "" {
		return constants.AppVersion
	}
	return Version
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   appVersion(),
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
		Platform:  Platform,
	}
}
