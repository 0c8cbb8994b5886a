// Package health exposes the standard gRPC health service for alarm-portal.
//
// The overall status is SERVING while the process runs; the alarm_portal
// service is SERVING only while the event source is connected.
package health
