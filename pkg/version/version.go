// Package version holds the build version string.
package version

// Version is overridden at build time via -ldflags "-X sightseer/pkg/version.Version=...".
var Version = "v0.3.1"
