package channel

import (
	"errors"
	"fmt"
	"strings"
)

// Channel is a named update track controlling which builds are offered.
type Channel uint8

const (
	// Stable is the default channel and is never encoded in the check URL.
	Stable Channel = iota
	// Beta receives pre-release builds.
	Beta
	// Nightly receives builds from the main branch.
	Nightly
)

// ErrUnknown is returned when a tag does not name a known channel.
var ErrUnknown = errors.New("unknown channel")

// tags maps every channel to its serialized form.
//
//nolint:gochecknoglobals // Read-only lookup table.
var tags = [...]string{
	Stable:  "stable",
	Beta:    "beta",
	Nightly: "nightly",
}

// All returns every channel in display order.
// A fresh slice is returned so callers may modify it.
func All() []Channel {
	return []Channel{Stable, Beta, Nightly}
}

// FromTag converts a serialized tag into a Channel. Only the exact lowercase
// tag is accepted, as stored on disk and sent over the wire.
func FromTag(tag string) (Channel, error) {
	for c, t := range tags {
		if t == tag {
			return Channel(c), nil
		}
	}

	return Stable, fmt.Errorf("%w: %q", ErrUnknown, tag)
}

// Parse converts user input into a Channel.
// Surrounding whitespace and letter case are ignored.
func Parse(s string) (Channel, error) {
	c, err := FromTag(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return Stable, fmt.Errorf("%w: %q", ErrUnknown, s)
	}

	return c, nil
}

// String returns the lowercase tag.
func (c Channel) String() string {
	if !c.IsValid() {
		return fmt.Sprintf("channel(%d)", uint8(c))
	}

	return tags[c]
}

// IsValid reports whether c is one of the known channels.
func (c Channel) IsValid() bool {
	return int(c) < len(tags)
}

// IsDefault reports whether c is the stable channel.
func (c Channel) IsDefault() bool {
	return c == Stable
}

// MarshalText implements encoding.TextMarshaler.
func (c Channel) MarshalText() ([]byte, error) {
	if !c.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknown, uint8(c))
	}

	return []byte(tags[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using the exact tag.
func (c *Channel) UnmarshalText(text []byte) error {
	parsed, err := FromTag(string(text))
	if err != nil {
		return err
	}

	*c = parsed

	return nil
}
