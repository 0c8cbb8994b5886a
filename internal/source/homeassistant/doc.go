// Package homeassistant receives state_changed events from the Home Assistant
// WebSocket API.
//
// The client authenticates with a long-lived access token, subscribes to
// state_changed and dispatches events to handlers registered per entity. It
// reconnects with exponential backoff; an auth_invalid answer is terminal.
package homeassistant
