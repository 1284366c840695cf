// Package release contains the contract between the update orchestration and
// the service that actually checks, downloads and installs builds.
//
// An Update is an opaque handle issued by that service once a newer build is
// known to exist. The orchestration only stores it and hands it over; Metadata
// is the display projection shown to the user.
package release
