package updater

import "errors"

var (
	// ErrNoPendingUpdate is returned by install when no checked update is waiting.
	ErrNoPendingUpdate = errors.New("there is no pending update")
	// ErrInvalidEndpoint is returned when the check URL cannot be built.
	ErrInvalidEndpoint = errors.New("invalid update endpoint")
	// ErrCheckFailed wraps failures reported by the update service during a check.
	ErrCheckFailed = errors.New("update check failed")
	// ErrInstallFailed wraps failures downloading or applying a pending update.
	ErrInstallFailed = errors.New("update install failed")
)
