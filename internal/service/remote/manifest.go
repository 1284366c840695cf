package remote

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// manifestLimit caps the size of a release description.
const manifestLimit = 1 << 20

// Manifest is the release description returned by the update host.
// Either the top-level URL/Signature pair or the per-platform table is set.
type Manifest struct {
	// Version is the version of the offered build.
	Version string `json:"version"`
	// Notes are the release notes.
	Notes string `json:"notes,omitempty"`
	// PubDate is the publication timestamp as sent by the host.
	PubDate string `json:"pub_date,omitempty"`
	// URL is the artifact location for single-platform responses.
	URL string `json:"url,omitempty"`
	// Signature is the base64 artifact signature for single-platform responses.
	Signature string `json:"signature,omitempty"`
	// Platforms maps "<target>-<arch>" to artifacts for static multi-platform files.
	Platforms map[string]Asset `json:"platforms,omitempty"`
}

// Asset is one downloadable artifact.
type Asset struct {
	// URL is the artifact location.
	URL string `json:"url"`
	// Signature is the base64 artifact signature.
	Signature string `json:"signature,omitempty"`
}

func decodeManifest(r io.Reader) (*Manifest, error) {
	var m Manifest

	decoder := json.NewDecoder(io.LimitReader(r, manifestLimit))
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	if strings.TrimSpace(m.Version) == "" {
		return nil, fmt.Errorf("%w: version is empty", ErrInvalidManifest)
	}

	return &m, nil
}

// asset selects the artifact for the platform.
func (m *Manifest) asset(p Platform) (Asset, error) {
	if len(m.Platforms) > 0 {
		a, ok := m.Platforms[p.Key()]
		if !ok {
			return Asset{}, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p.Key())
		}

		if a.URL == "" {
			return Asset{}, fmt.Errorf("%w: no url for %s", ErrInvalidManifest, p.Key())
		}

		return a, nil
	}

	if m.URL == "" {
		return Asset{}, fmt.Errorf("%w: url is empty", ErrInvalidManifest)
	}

	return Asset{URL: m.URL, Signature: m.Signature}, nil
}

// isNewer reports whether the manifest version is strictly greater than current.
func (m *Manifest) isNewer(current string) (bool, error) {
	offered, err := semver.NewVersion(m.Version)
	if err != nil {
		return false, fmt.Errorf("%w: version %q: %w", ErrInvalidManifest, m.Version, err)
	}

	running, err := semver.NewVersion(current)
	if err != nil {
		return false, fmt.Errorf("%w: %q: %w", ErrInvalidVersion, current, err)
	}

	return offered.GreaterThan(running), nil
}
