package remote

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net/http"
	"time"

	"github.com/oshokin/release-channels/internal/config"
	"github.com/oshokin/release-channels/internal/domain/release"
	"github.com/oshokin/release-channels/internal/logger"
	"github.com/oshokin/release-channels/internal/version"
)

// Client checks the update host and issues Update handles.
type Client struct {
	// httpClient performs manifest requests; its Timeout bounds the whole exchange.
	httpClient *http.Client
	// downloadClient performs artifact requests without a total timeout.
	downloadClient *http.Client
	// timeout bounds manifest requests, artifact response headers and idle artifact reads.
	timeout time.Duration
	// maxArtifactSize caps the artifact body.
	maxArtifactSize int64
	// platform selects the artifact flavour.
	platform Platform
	// currentVersion is reported to the host and compared with the offer.
	currentVersion string
	// applier replaces the target binary.
	applier *applier
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Artifact downloads use a
// copy of it without the total Timeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout bounds manifest requests and stalls while downloading artifacts.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithPlatform overrides the detected platform.
func WithPlatform(p Platform) Option {
	return func(c *Client) {
		c.platform = p
	}
}

// WithCurrentVersion overrides the running version.
func WithCurrentVersion(v string) Option {
	return func(c *Client) {
		if v != "" {
			c.currentVersion = v
		}
	}
}

// WithTargetPath sets the binary replaced on install.
func WithTargetPath(path string) Option {
	return func(c *Client) {
		c.applier.targetPath = path
	}
}

// WithPublicKey requires artifacts to carry a signature valid for key.
func WithPublicKey(key ed25519.PublicKey) Option {
	return func(c *Client) {
		c.applier.publicKey = key
	}
}

// WithTerminateRunning stops other processes of the target binary before applying.
func WithTerminateRunning(enabled bool) Option {
	return func(c *Client) {
		c.applier.terminateRunning = enabled
	}
}

// New creates a client for the running platform and build version.
func New(opts ...Option) *Client {
	c := &Client{
		timeout:         config.DefaultTimeout,
		maxArtifactSize: MaxArtifactSize,
		platform:        DetectPlatform(),
		currentVersion:  version.Short(),
		applier:         new(applier),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: newTransport(c.timeout),
			Timeout:   c.timeout,
		}
	}

	download := *c.httpClient
	download.Timeout = 0
	c.downloadClient = &download

	return c
}

// newTransport clones the default transport, bounding the wait for response headers.
func newTransport(timeout time.Duration) http.RoundTripper {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return http.DefaultTransport
	}

	transport := base.Clone()
	transport.ResponseHeaderTimeout = timeout

	return transport
}

// FromConfig creates a client using the update settings from cfg.
func FromConfig(cfg *config.Config) (*Client, error) {
	key, err := cfg.DecodePublicKey()
	if err != nil {
		return nil, err
	}

	return New(
		WithTimeout(cfg.Timeout),
		WithCurrentVersion(cfg.CurrentVersion),
		WithTargetPath(cfg.TargetPath),
		WithPublicKey(key),
		WithTerminateRunning(cfg.TerminateRunning),
	), nil
}

// Check asks the host behind endpoint whether a newer build exists.
// It returns nil without error when the running build is current.
func (c *Client) Check(ctx context.Context, endpoint string) (release.Update, error) {
	finalURL := c.platform.RenderEndpoint(endpoint, c.currentVersion)

	logger.DebugKV(ctx, "Requesting release manifest", "url", finalURL)

	response, err := c.get(ctx, c.httpClient, finalURL, "application/json")
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = response.Body.Close()
	}()

	switch response.StatusCode {
	case http.StatusNoContent:
		logger.InfoKV(ctx, "No update available", "current_version", c.currentVersion)
		return nil, nil //nolint:nilnil // No update is a valid outcome.
	case http.StatusOK:
	default:
		return nil, fmt.Errorf("%s, %s: %w", finalURL, response.Status, ErrBadStatus)
	}

	manifest, err := decodeManifest(response.Body)
	if err != nil {
		return nil, err
	}

	newer, err := manifest.isNewer(c.currentVersion)
	if err != nil {
		return nil, err
	}

	if !newer {
		logger.InfoKV(ctx, "Offered version is not newer",
			"offered", manifest.Version, "current_version", c.currentVersion)

		return nil, nil //nolint:nilnil // No update is a valid outcome.
	}

	asset, err := manifest.asset(c.platform)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Update available", "version", manifest.Version, "current_version", c.currentVersion)

	return &Update{
		client:         c,
		version:        manifest.Version,
		currentVersion: c.currentVersion,
		notes:          manifest.Notes,
		asset:          asset,
	}, nil
}

// get issues a GET request, mapping network failures to ErrTransport.
func (c *Client) get(ctx context.Context, httpClient *http.Client, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", version.UserAgent())
	req.Header.Set("Accept", accept)

	response, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	return response, nil
}
