package updater

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/oshokin/release-channels/internal/domain/channel"
	"github.com/oshokin/release-channels/internal/logger"
	repo "github.com/oshokin/release-channels/internal/repository/channel"
)

// Store keeps the selected release channel in memory and mirrors it to a repository.
// Writes are best-effort: a failed save is logged and the in-memory value stays.
type Store struct {
	// repo persists the selection; nil keeps it in memory only.
	repo repo.Repository
	// current is the selected channel.
	current channel.Channel
	// mu protects current.
	mu sync.Mutex
}

// LoadStore creates a store from the persisted selection.
// A missing or unreadable record yields the stable channel.
func LoadStore(ctx context.Context, repository repo.Repository) *Store {
	s := &Store{
		repo:    repository,
		current: channel.Stable,
	}

	if repository == nil {
		return s
	}

	c, err := repository.Load(ctx)
	switch {
	case err == nil:
		s.current = c
	case errors.Is(err, repo.ErrNotFound):
		logger.Debug(ctx, "No channel selected yet, using stable")
	default:
		logger.WarnKV(ctx, "Unable to load channel, using stable", "error", err)
	}

	return s
}

// Get returns the selected channel.
func (s *Store) Get() channel.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// Set selects c and persists it without holding the lock during I/O.
func (s *Store) Set(ctx context.Context, c channel.Channel) error {
	if !c.IsValid() {
		return fmt.Errorf("set channel: %w", channel.ErrUnknown)
	}

	s.mu.Lock()
	s.current = c
	s.mu.Unlock()

	logger.InfoKV(ctx, "Channel selected", "channel", c)

	if s.repo == nil {
		return nil
	}

	if err := s.repo.Save(ctx, c); err != nil {
		logger.WarnKV(ctx, "Failed to persist channel", "channel", c, "error", err)
	}

	return nil
}

// Available returns every channel in display order.
func (s *Store) Available() []channel.Channel {
	return channel.All()
}
