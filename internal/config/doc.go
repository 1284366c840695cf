// Package config defines the updater settings and provides helpers to load,
// validate and save them in YAML format.
//
// Config names the update host and the organisation/application slugs used to
// build check endpoints, the daemon listen address, and where the channel
// preference is persisted.
package config
