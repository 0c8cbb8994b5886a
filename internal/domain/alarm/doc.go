// Package alarm contains core domain types for the alarm portal.
//
// It defines the state snapshots and state change events received from the
// home-automation host, the set of labels worth forwarding, and the payload
// sent to the remote portal.
package alarm
