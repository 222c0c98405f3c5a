package common

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Version information (set via -ldflags during build)
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// VersionInfo describes the running binary
type VersionInfo struct {
	Version   string `json:"version"`
	Build     string `json:"build"`
	GitCommit string `json:"git_commit"`
	GoVersion string `json:"go_version"`
}

// GetVersion returns the current version string
func GetVersion() string {
	return Version
}

// GetFullVersion returns version with build info
func GetFullVersion() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (build: %s, commit: %s, %s)", info.Version, info.Build, info.GitCommit, info.GoVersion)
}

// GetVersionInfo returns the ldflags values, filling the commit from the
// embedded VCS stamp when ldflags did not set it
func GetVersionInfo() VersionInfo {
	info := VersionInfo{Version: Version, Build: Build, GitCommit: GitCommit}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" && len(s.Value) >= 7 {
				info.GitCommit = s.Value[:7]
			}
		case "vcs.time":
			if info.Build == "unknown" {
				info.Build = s.Value
			}
		}
	}
	return info
}

// LoadVersionFromFile reads version from .version file beside the executable if it exists
func LoadVersionFromFile() string {
	exePath, err := os.Executable()
	if err != nil {
		return Version
	}

	data, err := os.ReadFile(filepath.Join(filepath.Dir(exePath), ".version"))
	if err != nil {
		return Version
	}

	if version := strings.TrimSpace(string(data)); version != "" {
		Version = version
	}

	return Version
}
