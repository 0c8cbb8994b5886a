// Package source decouples the forwarder from the home-automation event bus.
//
// A Subscriber delivers state change events for the entities handlers were
// registered for. Registry holds the entity-scoped handler table shared by
// the concrete adapters in the homeassistant and mqtt subpackages.
package source
