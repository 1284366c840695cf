// Package client implements the CLI side of the updater commands.
//
// Each command connects to the updater daemon, issues one call and prints the
// result as JSON, the same shape a UI shell would receive.
package client
