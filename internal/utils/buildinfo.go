// Package utils provides helper functions shared by the explorer packages.
package utils

import (
	"os/exec"
	"runtime/debug"
	"strings"
)

const (
	unknownVersion     = "unknown"
	developmentVersion = "(devel)"
)

// ApplicationVersion is overridden at link time with -ldflags "-X".
var ApplicationVersion = ""

// GetApplicationVersion resolves the version from the link-time value, the module
// build information, or git describe when running from a checkout.
func GetApplicationVersion() string {
	if ApplicationVersion != "" {
		return ApplicationVersion
	}
	buildInfo, buildInfoAvailable := debug.ReadBuildInfo()
	if buildInfoAvailable && buildInfo.Main.Version != "" && buildInfo.Main.Version != developmentVersion {
		return buildInfo.Main.Version
	}
	if buildInfoAvailable {
		if revision := buildSetting(buildInfo, "vcs.revision"); revision != "" {
			return shortRevision(revision)
		}
	}
	// #nosec G204
	describeOutput, describeError := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if describeError == nil && len(describeOutput) > 0 {
		return strings.TrimSpace(string(describeOutput))
	}
	return unknownVersion
}

func buildSetting(buildInfo *debug.BuildInfo, key string) string {
	for _, setting := range buildInfo.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func shortRevision(revision string) string {
	const shortRevisionLength = 12
	if len(revision) > shortRevisionLength {
		return revision[:shortRevisionLength]
	}
	return revision
}
