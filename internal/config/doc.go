// Package config defines the alarm portal settings and provides helpers to
// load, validate and save them in YAML format.
//
// The Portal block holds the immutable delivery triple (server URL, API token,
// watched entity); Source selects how state change events are received.
package config
