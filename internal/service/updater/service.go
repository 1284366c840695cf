package updater

import (
	"context"

	"github.com/oshokin/release-channels/internal/domain/channel"
	"github.com/oshokin/release-channels/internal/domain/release"
)

// Service exposes the update commands over the process-wide store and slot.
type Service struct {
	store     *Store
	checker   *Checker
	installer *Installer
}

// NewService wires the update commands.
func NewService(store *Store, endpoints *EndpointBuilder, collaborator Collaborator) *Service {
	slot := new(Slot)

	return &Service{
		store:     store,
		checker:   NewChecker(endpoints, collaborator, slot),
		installer: NewInstaller(slot),
	}
}

// FetchUpdate checks the selected channel for a newer build.
func (s *Service) FetchUpdate(ctx context.Context) (*release.Metadata, error) {
	return s.checker.Check(ctx, s.store.Get())
}

// InstallUpdate installs the update found by the latest successful fetch.
func (s *Service) InstallUpdate(ctx context.Context, progress release.Progress) error {
	return s.installer.Install(ctx, progress)
}

// SetChannel selects and persists a channel.
func (s *Service) SetChannel(ctx context.Context, c channel.Channel) error {
	return s.store.Set(ctx, c)
}

// GetChannel returns the selected channel.
func (s *Service) GetChannel(context.Context) channel.Channel {
	return s.store.Get()
}

// AvailableChannels lists every channel in display order.
func (s *Service) AvailableChannels(context.Context) []channel.Channel {
	return s.store.Available()
}
