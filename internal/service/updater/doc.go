// Package updater orchestrates channel-scoped self-updates.
//
// Store keeps the selected release channel, EndpointBuilder derives the check
// URL for it, Checker asks the update service and parks any offered update in
// a single-entry Slot, and Installer consumes that entry to download and apply
// the build. Service bundles them behind the command surface.
package updater
