package startup

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X dlna-server/internal/startup.Version=...".
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is served by /version.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// ServerString is the SERVER header value sent in SSDP announcements.
func ServerString() string {
	return fmt.Sprintf("%s/%s UPnP/1.0 DLNADOC/1.50 dlna-server/%s", runtime.GOOS, runtime.GOARCH, Version)
}
