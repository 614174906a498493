// Package version provides build-time version information for encodebot.
//
// Version, Commit, and Date are injected at build time via ldflags:
//
//	go build -ldflags "-X github.com/lumenmedia/encodebot/internal/version.Version=x.y.z \
//	                   -X github.com/lumenmedia/encodebot/internal/version.Commit=$(git rev-parse HEAD) \
//	                   -X github.com/lumenmedia/encodebot/internal/version.Date=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
)

// Build-time variables injected via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// ApplicationName is the canonical name of this application.
const ApplicationName = "encodebot"

// Info contains structured version information.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetInfo returns all version information as a structured type.
func GetInfo() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// String returns a human-readable version string.
func String() string {
	i := GetInfo()
	return fmt.Sprintf("%s %s (commit %s, built %s, %s, %s)",
		ApplicationName, i.Version, i.Commit, i.Date, i.GoVersion, i.Platform)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// JSON returns version information as a JSON string.
func JSON() string {
	b, err := json.MarshalIndent(GetInfo(), "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}
