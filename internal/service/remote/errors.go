package remote

import "errors"

var (
	// ErrTransport wraps network failures talking to the update host.
	ErrTransport = errors.New("update host unreachable")
	// ErrBadStatus is returned for unexpected HTTP statuses.
	ErrBadStatus = errors.New("unexpected http status")
	// ErrInvalidManifest is returned when the release description cannot be used.
	ErrInvalidManifest = errors.New("invalid release manifest")
	// ErrInvalidVersion is returned when the running version is not semantic.
	ErrInvalidVersion = errors.New("invalid current version")
	// ErrUnsupportedPlatform is returned when no artifact exists for this platform.
	ErrUnsupportedPlatform = errors.New("no artifact for platform")
	// ErrMissingSignature is returned when a key is configured but the artifact is unsigned.
	ErrMissingSignature = errors.New("artifact signature missing")
	// ErrBadSignature is returned when the artifact signature does not verify.
	ErrBadSignature = errors.New("artifact signature mismatch")
	// ErrApply wraps failures replacing the target binary.
	ErrApply = errors.New("apply update")
)
