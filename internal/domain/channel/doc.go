// Package channel defines the release channels an installation can follow.
//
// A Channel is a closed set of update tracks (stable, beta, nightly) that
// serializes to a lowercase tag. Stable is the zero value and the default.
package channel
