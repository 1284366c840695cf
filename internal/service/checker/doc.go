// Package checker polls the updater daemon for new builds on the selected
// channel and optionally installs the first one it finds.
package checker
