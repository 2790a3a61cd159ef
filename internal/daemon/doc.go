// Package daemon composes the receiver, work queue, relay worker, and
// dashboard into a single-instance background service.
package daemon
