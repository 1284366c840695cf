//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	api "github.com/oshokin/release-channels/internal/api/grpc/updater"
	"github.com/oshokin/release-channels/internal/config"
	"github.com/oshokin/release-channels/internal/domain/channel"
	"github.com/oshokin/release-channels/internal/domain/release"
)

// Client issues updater commands to a running daemon.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn *grpc.ClientConn
	// actor is attached to every call's metadata.
	actor api.Actor

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
// Zero disables the timeout.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor identifies the caller in the daemon's request log.
func WithActor(actor api.Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// errAddressRequired is returned when a required address value is missing.
var errAddressRequired = errors.New("address must be provided")

// Dial establishes a gRPC connection to the updater daemon.
// The daemon listens on loopback by default, so transport credentials are insecure.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial updater daemon: %w", err)
	}

	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// FetchUpdate asks the daemon to check the selected channel.
// A nil result means the application is up to date.
func (c *Client) FetchUpdate(ctx context.Context) (*release.Metadata, error) {
	resp := new(structpb.Struct)
	if err := c.invoke(ctx, api.FetchUpdateMethod, new(emptypb.Empty), resp); err != nil {
		return nil, fmt.Errorf("fetch update: %w", err)
	}

	return api.MetadataFromStruct(resp), nil
}

// InstallUpdate installs the update found by the last fetch.
// Installation streams the artifact, so no call timeout is applied.
func (c *Client) InstallUpdate(ctx context.Context) error {
	ctx = api.WithActor(ctx, c.actor)

	if err := c.conn.Invoke(ctx, api.InstallUpdateMethod, new(emptypb.Empty), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("install update: %w", err)
	}

	return nil
}

// SetChannel selects the release channel.
func (c *Client) SetChannel(ctx context.Context, ch channel.Channel) error {
	if err := c.invoke(ctx, api.SetChannelMethod, wrapperspb.String(ch.String()), new(emptypb.Empty)); err != nil {
		return fmt.Errorf("set channel: %w", err)
	}

	return nil
}

// GetChannel returns the selected release channel.
func (c *Client) GetChannel(ctx context.Context) (channel.Channel, error) {
	resp := new(wrapperspb.StringValue)
	if err := c.invoke(ctx, api.GetChannelMethod, new(emptypb.Empty), resp); err != nil {
		return channel.Stable, fmt.Errorf("get channel: %w", err)
	}

	return channel.FromTag(resp.GetValue())
}

// AvailableChannels lists the channels the daemon accepts.
func (c *Client) AvailableChannels(ctx context.Context) ([]channel.Channel, error) {
	resp := new(structpb.ListValue)
	if err := c.invoke(ctx, api.AvailableChannelsMethod, new(emptypb.Empty), resp); err != nil {
		return nil, fmt.Errorf("available channels: %w", err)
	}

	result := make([]channel.Channel, 0, len(resp.GetValues()))

	for _, v := range resp.GetValues() {
		ch, err := channel.FromTag(v.GetStringValue())
		if err != nil {
			return nil, err
		}

		result = append(result, ch)
	}

	return result, nil
}

// invoke performs a unary call bounded by the call timeout.
func (c *Client) invoke(ctx context.Context, method string, req, resp any) error {
	callCtx, cancel := c.callContext(api.WithActor(ctx, c.actor))
	defer cancel()

	return c.conn.Invoke(callCtx, method, req, resp)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
