// Package version exposes build metadata for alarm-portal.
//
// Version, Commit and BuildTime are injected through Go ldflags. Full renders
// them for the CLI, UserAgent identifies outbound portal requests.
package version
