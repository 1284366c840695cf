package updater

import (
	"context"
	"fmt"

	"github.com/oshokin/release-channels/internal/domain/channel"
	"github.com/oshokin/release-channels/internal/domain/release"
	"github.com/oshokin/release-channels/internal/logger"
)

// Collaborator is the update service that checks endpoints and issues update handles.
type Collaborator interface {
	// Check returns nil without error when the running build is current.
	Check(ctx context.Context, endpoint string) (release.Update, error)
}

// Checker asks the update service for a newer build on a channel.
type Checker struct {
	endpoints *EndpointBuilder
	service   Collaborator
	slot      *Slot
}

// NewChecker wires a checker that parks offered updates in slot.
func NewChecker(endpoints *EndpointBuilder, service Collaborator, slot *Slot) *Checker {
	return &Checker{
		endpoints: endpoints,
		service:   service,
		slot:      slot,
	}
}

// Check queries the update service once for c.
// When an update is offered it replaces the slot contents and its metadata is
// returned; otherwise the slot is left untouched and nil is returned.
func (c *Checker) Check(ctx context.Context, ch channel.Channel) (*release.Metadata, error) {
	endpoint, err := c.endpoints.Build(ch)
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Checking for update", "channel", ch, "endpoint", endpoint)

	update, err := c.service.Check(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCheckFailed, err)
	}

	if update == nil {
		return nil, nil //nolint:nilnil // No update is a valid outcome.
	}

	metadata := release.MetadataOf(update)
	c.slot.Put(update)

	logger.InfoKV(ctx, "Update pending", "version", metadata.Version, "current_version", metadata.CurrentVersion)

	return metadata, nil
}
