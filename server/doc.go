// Package server exposes the knowledge store over HTTP: statistics,
// similarity search and feed administration, plus a Prometheus metrics
// listener on its own port.
package server
