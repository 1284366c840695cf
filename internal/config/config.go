package config

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/release-channels/internal/version"
)

// Config holds the settings shared by the daemon and the CLI commands.
type Config struct {
	// ListenAddress is the gRPC address the daemon serves commands on.
	ListenAddress string `yaml:"listen_addr"`
	// UpdateHost is the host serving update manifests.
	UpdateHost string `yaml:"update_host"`
	// Org is the organisation slug in the check endpoint.
	Org string `yaml:"org"`
	// App is the application slug in the check endpoint.
	App string `yaml:"app"`
	// Identifier names the per-user config directory of the application.
	Identifier string `yaml:"identifier"`
	// ConfigDir overrides the per-user application config directory.
	ConfigDir string `yaml:"config_dir"`
	// CurrentVersion overrides the version reported to the update host.
	CurrentVersion string `yaml:"current_version"`
	// TargetPath is the binary replaced on install; defaults to the running executable.
	TargetPath string `yaml:"target_path"`
	// PublicKey is an optional base64 ed25519 key used to verify artifacts.
	PublicKey string `yaml:"public_key"`
	// TerminateRunning stops other processes of the target binary before applying.
	TerminateRunning bool `yaml:"terminate_running"`
	// Timeout bounds every HTTP request made to the update host.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for updater settings.
	DefaultConfigFilename = "release-channels.yaml"

	// ChannelFilename is the name of the persisted channel record inside the config directory.
	ChannelFilename = "app-channel"

	// DefaultListenAddress is used when the daemon address is not configured.
	DefaultListenAddress = "127.0.0.1:7426"

	// DefaultUpdateHost is the update host used when none is configured.
	DefaultUpdateHost = "cdn.cntest.me"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// DefaultDirPermissions is used when creating the application config directory.
	DefaultDirPermissions = 0o700
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errSlugRequired is returned when the organisation or application slug is missing.
	errSlugRequired = errors.New("org and app slugs must be provided")
	// errIdentifierRequired is returned when no config directory can be derived.
	errIdentifierRequired = errors.New("identifier or config_dir must be provided")
	// errInvalidPublicKey is returned when the public key is not a base64 ed25519 key.
	errInvalidPublicKey = errors.New("public key must be a base64 encoded ed25519 key")
	// errTerminateNeedsTarget is returned when terminate_running is set without a target_path.
	errTerminateNeedsTarget = errors.New("terminate_running requires target_path")
	// errTerminateSelf is returned when terminating the target would stop this tool's own processes.
	errTerminateSelf = errors.New("terminate_running cannot target an executable named like this tool")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes Config to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and fills defaults.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.Org == "" || settings.App == "" {
		return errSlugRequired
	}

	if settings.ListenAddress == "" {
		settings.ListenAddress = DefaultListenAddress
	}

	if _, err := net.ResolveTCPAddr("tcp", settings.ListenAddress); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	if settings.UpdateHost == "" {
		settings.UpdateHost = DefaultUpdateHost
	}

	if settings.Identifier == "" && settings.ConfigDir == "" {
		return errIdentifierRequired
	}

	if settings.CurrentVersion == "" {
		settings.CurrentVersion = version.Short()
	}

	// Set default timeout if not specified.
	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	// Running instances are found by executable name, and the daemon and CLI share one.
	if settings.TerminateRunning {
		if settings.TargetPath == "" {
			return errTerminateNeedsTarget
		}

		if SharesExecutableName(settings.TargetPath) {
			return errTerminateSelf
		}
	}

	if settings.PublicKey != "" {
		if _, err := settings.DecodePublicKey(); err != nil {
			return err
		}
	}

	return nil
}

// SharesExecutableName reports whether path has the same file name as the running executable.
func SharesExecutableName(path string) bool {
	executable, err := os.Executable()
	if err != nil {
		return false
	}

	return strings.EqualFold(filepath.Base(path), filepath.Base(executable))
}

// DecodePublicKey returns the configured verification key, or nil when none is set.
func (c *Config) DecodePublicKey() (ed25519.PublicKey, error) {
	if c.PublicKey == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidPublicKey, err)
	}

	if len(raw) != ed25519.PublicKeySize {
		return nil, errInvalidPublicKey
	}

	return ed25519.PublicKey(raw), nil
}

// AppConfigDir resolves the per-user application config directory.
func (c *Config) AppConfigDir() (string, error) {
	if c.ConfigDir != "" {
		return filepath.Clean(c.ConfigDir), nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}

	return filepath.Join(base, c.Identifier), nil
}

// ChannelPath returns the location of the persisted channel record.
func (c *Config) ChannelPath() (string, error) {
	dir, err := c.AppConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(dir, ChannelFilename), nil
}
