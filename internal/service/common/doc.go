// Package common holds helpers shared by several services.
//
// It provides a gRPC client for the updater daemon's commands with per-call
// timeouts, and detection of the calling system actor (hostname/username).
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
