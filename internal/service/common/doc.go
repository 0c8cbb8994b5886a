// Package common holds helpers shared by the alarm-portal services.
//
// It configures the context logger from settings and builds the event source
// selected in the configuration.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
