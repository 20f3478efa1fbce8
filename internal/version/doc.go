// Package version holds the build metadata of the accirescue binaries.
//
// Version, Commit and BuildTime are overridden with -ldflags "-X" at release time.
package version
