// Package remote is an update service speaking the Tauri-style updater protocol.
//
// Check renders the endpoint placeholders for the running platform and asks
// the update host for a release; a 204 reply means the build is current.
// The returned Update streams the artifact, optionally verifies its ed25519
// signature, and replaces the target binary using go-update.
package remote
