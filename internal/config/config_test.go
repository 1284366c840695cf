package config

import (
	"crypto/ed25519"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-channels/internal/version"
)

// TestValidate checks required fields, defaults and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing slugs.
	settings := new(Config)

	err := Validate(settings)
	require.ErrorIs(t, err, errSlugRequired)

	// Missing identifier and config dir.
	settings = &Config{
		Org: "testnew",
		App: "release-channels-demo",
	}

	err = Validate(settings)
	require.ErrorIs(t, err, errIdentifierRequired)

	// Bad listen address.
	settings = &Config{
		Org:           "testnew",
		App:           "release-channels-demo",
		Identifier:    "com.testnew.demo",
		ListenAddress: "bad:address",
	}

	err = Validate(settings)
	require.Error(t, err)

	// Defaults are filled in.
	settings = &Config{
		Org:        "testnew",
		App:        "release-channels-demo",
		Identifier: "com.testnew.demo",
	}

	require.NoError(t, Validate(settings))
	require.Equal(t, DefaultListenAddress, settings.ListenAddress)
	require.Equal(t, DefaultUpdateHost, settings.UpdateHost)
	require.Equal(t, DefaultTimeout, settings.Timeout)
	require.Equal(t, version.Short(), settings.CurrentVersion)
}

// TestValidate_TerminateRunning requires a target that is not this tool's own executable.
func TestValidate_TerminateRunning(t *testing.T) {
	t.Parallel()

	executable, err := os.Executable()
	require.NoError(t, err)

	newSettings := func(target string) *Config {
		return &Config{
			Org:              "testnew",
			App:              "release-channels-demo",
			Identifier:       "com.testnew.demo",
			TargetPath:       target,
			TerminateRunning: true,
		}
	}

	require.ErrorIs(t, Validate(newSettings("")), errTerminateNeedsTarget)
	require.ErrorIs(t, Validate(newSettings(executable)), errTerminateSelf)
	require.ErrorIs(t,
		Validate(newSettings(filepath.Join(t.TempDir(), filepath.Base(executable)))),
		errTerminateSelf,
	)
	require.NoError(t, Validate(newSettings(filepath.Join(t.TempDir(), "demo-app"))))

	// Without termination the running executable is the default target.
	settings := newSettings("")
	settings.TerminateRunning = false
	require.NoError(t, Validate(settings))
}

// TestValidate_PublicKey rejects keys of the wrong size or encoding.
func TestValidate_PublicKey(t *testing.T) {
	t.Parallel()

	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	settings := &Config{
		Org:       "testnew",
		App:       "release-channels-demo",
		ConfigDir: t.TempDir(),
		PublicKey: base64.StdEncoding.EncodeToString(pub),
	}
	require.NoError(t, Validate(settings))

	key, err := settings.DecodePublicKey()
	require.NoError(t, err)
	require.Equal(t, pub, key)

	settings.PublicKey = "not base64!"
	require.ErrorIs(t, Validate(settings), errInvalidPublicKey)

	settings.PublicKey = base64.StdEncoding.EncodeToString([]byte("short"))
	require.ErrorIs(t, Validate(settings), errInvalidPublicKey)
}

// TestChannelPath ensures the channel record lives inside the app config dir.
func TestChannelPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	settings := &Config{ConfigDir: dir}

	path, err := settings.ChannelPath()
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, ChannelFilename), path)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	settings := &Config{
		ListenAddress:    "127.0.0.1:50051",
		UpdateHost:       "updates.local",
		Org:              "testnew",
		App:              "release-channels-demo",
		ConfigDir:        dir,
		TerminateRunning: true,
	}

	require.NoError(t, Save(path, settings))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, settings.ListenAddress, loaded.ListenAddress)
	require.Equal(t, settings.UpdateHost, loaded.UpdateHost)
	require.Equal(t, settings.Org, loaded.Org)
	require.Equal(t, settings.App, loaded.App)
	require.True(t, loaded.TerminateRunning)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
