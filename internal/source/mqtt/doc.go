// Package mqtt receives alarm state changes from the Home Assistant
// mqtt_statestream integration.
//
// Statestream publishes each entity's state label to
// <base_topic>/<domain>/<object_id>/state. The previous label is remembered
// per entity so handlers get both snapshots, the way state_changed carries them.
package mqtt
