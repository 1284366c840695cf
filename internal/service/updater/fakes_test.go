package updater

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	domain "github.com/oshokin/release-channels/internal/domain/channel"
	"github.com/oshokin/release-channels/internal/domain/release"
)

var (
	errTestTransport = errors.New("test transport error")
	errTestApply     = errors.New("test apply error")
	errTestSave      = errors.New("test save error")
)

// fakeUpdate is an update handle that records installs.
type fakeUpdate struct {
	version string
	// chunks are reported before the install finishes.
	chunks []int64
	// err is returned from DownloadAndInstall.
	err error
	// installs counts DownloadAndInstall calls.
	installs atomic.Int32
}

func (u *fakeUpdate) Version() string        { return u.version }
func (u *fakeUpdate) CurrentVersion() string { return "1.0.0" }

func (u *fakeUpdate) DownloadAndInstall(_ context.Context, progress release.Progress) error {
	u.installs.Add(1)

	for _, received := range u.chunks {
		progress.Chunk(received, u.chunks[len(u.chunks)-1], true)
	}

	if u.err != nil {
		return u.err
	}

	progress.Finished()

	return nil
}

// fakeCollaborator returns queued results and records requested endpoints.
type fakeCollaborator struct {
	mu        sync.Mutex
	results   []release.Update
	err       error
	endpoints []string
}

func (c *fakeCollaborator) Check(_ context.Context, endpoint string) (release.Update, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endpoints = append(c.endpoints, endpoint)

	if c.err != nil {
		return nil, c.err
	}

	if len(c.results) == 0 {
		return nil, nil
	}

	u := c.results[0]
	c.results = c.results[1:]

	return u, nil
}

func (c *fakeCollaborator) calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.endpoints...)
}

// memoryRepository is a minimal in-memory Repository implementation for tests.
type memoryRepository struct {
	mu      sync.Mutex
	current domain.Channel
	loadErr error
	saveErr error
	saved   []domain.Channel
}

func (m *memoryRepository) Load(context.Context) (domain.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.current, m.loadErr
}

func (m *memoryRepository) Save(_ context.Context, c domain.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.saved = append(m.saved, c)
	if m.saveErr != nil {
		return m.saveErr
	}

	m.current = c

	return nil
}
