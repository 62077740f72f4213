// Package version reports the build version of the dotprompt Go module.
// Version variables can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/google/dotprompt/runtime/version.version=1.0.0"
package version

import (
	"runtime/debug"
)

const (
	// devVersion is the default version when not set via ldflags
	devVersion = "dev"
	// shortCommitLen is the length of the short commit hash
	shortCommitLen = 7
	// build info keys written by the go tool for VCS checkouts
	vcsRevisionKey = "vcs.revision"
	vcsModifiedKey = "vcs.modified"
	// generatorName prefixes the Generator string
	generatorName = "dotprompt-go"
)

// Build-time variables - can be overridden with -ldflags
var (
	version   = devVersion
	gitCommit = ""
	buildDate = ""
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Build describes the binary that produced a bundle or a log line.
type Build struct {
	Version string
	// Commit is a short VCS revision, empty when unknown.
	Commit string
	// Dirty is set when the go tool recorded uncommitted changes.
	// It is never set when the commit came from ldflags.
	Dirty bool
	Date  string
}

// GetVersion returns the current version string.
// Falls back to build info from go modules if version is "dev".
func GetVersion() string {
	return Current().Version
}

// Current returns the build details, preferring ldflags values over the
// module build info.
func Current() Build {
	b := Build{Version: version, Commit: gitCommit, Date: buildDate}

	info, ok := readBuildInfo()
	if !ok {
		return b
	}
	if b.Version == devVersion && info.Main.Version != "" && info.Main.Version != "(devel)" {
		b.Version = info.Main.Version
	}
	if gitCommit != "" {
		return b
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case vcsRevisionKey:
			b.Commit = setting.Value[:min(shortCommitLen, len(setting.Value))]
		case vcsModifiedKey:
			b.Dirty = setting.Value == "true"
		}
	}
	return b
}

// LogAttrs returns b as slog key-value pairs. Unknown fields are omitted.
func (b Build) LogAttrs() []any {
	attrs := []any{"version", b.Version}
	if b.Commit != "" {
		attrs = append(attrs, "commit", b.Commit)
	}
	if b.Dirty {
		attrs = append(attrs, "dirty", true)
	}
	if b.Date != "" {
		attrs = append(attrs, "built", b.Date)
	}
	return attrs
}

// Generator identifies b in artifacts it writes, such as prompt bundles:
// "dotprompt-go/<version>", with "+<commit>" appended when the commit is
// known and ".dirty" after that for modified checkouts.
func (b Build) Generator() string {
	g := generatorName + "/" + b.Version
	if b.Commit != "" {
		g += "+" + b.Commit
		if b.Dirty {
			g += ".dirty"
		}
	}
	return g
}

// Generator is Current().Generator().
func Generator() string {
	return Current().Generator()
}
