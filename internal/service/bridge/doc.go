// Package bridge runs the alarm-portal daemon: it loads settings, connects the
// configured event source, forwards alarm state changes to the portal and
// serves the optional health and metrics endpoints until shutdown.
package bridge
