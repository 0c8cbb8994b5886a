// Package forwarder turns state changes of the watched alarm entity into
// portal deliveries.
//
// Events for other entities, events without a new state and labels outside
// the forwardable set are dropped. Every accepted event is delivered once, on
// its own goroutine, and the outcome is only logged: there is no retry and no
// queue.
package forwarder
