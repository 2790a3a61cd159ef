// Package pipeline wires received instances through conversion, the work
// queue, and the relay worker. The receiver runs inside the protocol
// layer's store callback; the worker is the queue's single consumer.
package pipeline
