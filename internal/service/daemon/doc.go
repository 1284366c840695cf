// Package daemon wires the updater core to its collaborator and serves the
// update commands over gRPC until the context is canceled.
package daemon
