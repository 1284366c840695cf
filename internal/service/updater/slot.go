package updater

import (
	"sync"

	"github.com/oshokin/release-channels/internal/domain/release"
)

// Slot holds at most one update waiting to be installed.
type Slot struct {
	mu     sync.Mutex
	update release.Update
}

// Put stores u, replacing any update already held.
func (s *Slot) Put(u release.Update) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.update = u
}

// Take removes and returns the held update.
func (s *Slot) Take() (release.Update, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.update
	s.update = nil

	return u, u != nil
}
