// Package portal is the HTTP client of the remote alarm portal.
//
// One Client is created per process and reused for every delivery; each Post
// is a single request bounded by the client timeout. The client never retries.
package portal
