// Package browser provides history.Port implementations: an in-memory
// history for tests and local drivers, and a WebSocket bridge that drives a
// real browser page through a thin JavaScript shim.
package browser
