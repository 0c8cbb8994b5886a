// Package sender performs one manual delivery to the portal, the same request
// the bridge sends for a forwarded state change. It is meant for checking a
// deployment end to end.
package sender
