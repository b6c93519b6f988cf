// Package version exposes build metadata injected at link time.
package version

import (
	"runtime/debug"
	"strings"
)

// Populated at build time via -ldflags, e.g.:
//
//	-X github.com/holthome/backupctl/internal/version.Version=v1.2.0
//	-X github.com/holthome/backupctl/internal/version.Commit=abcdef123
var (
	// Version holds the semantic version of the binary.
	Version = "0.0.0-dev"

	// Commit holds the VCS commit hash used to build the binary (optional).
	Commit = ""
)

// String returns the effective version string. When no version was injected
// it falls back to the main module version from the build info, then to the
// development placeholder. A leading "v" tag prefix is stripped.
func String() string {
	v := strings.TrimSpace(Version)

	if v == "" || v == "0.0.0-dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := strings.TrimSpace(info.Main.Version); mv != "" && mv != "(devel)" {
				v = mv
			}
		}
	}

	if v == "" {
		v = "0.0.0-dev"
	}

	return strings.TrimPrefix(v, "v")
}

// Full returns the version with the commit hash appended when known.
func Full() string {
	v := String()
	if c := strings.TrimSpace(Commit); c != "" {
		if len(c) > 12 {
			c = c[:12]
		}
		return v + " (" + c + ")"
	}
	return v
}
