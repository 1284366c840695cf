package channel

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/oshokin/release-channels/internal/config"
	domain "github.com/oshokin/release-channels/internal/domain/channel"
)

// Repository defines persistence operations for the selected channel.
type Repository interface {
	Load(ctx context.Context) (domain.Channel, error)
	Save(ctx context.Context, c domain.Channel) error
}

// FileRepository persists the channel to a file on disk.
// The record is a protobuf StringValue rendered through protojson, which
// encodes as a bare JSON string.
type FileRepository struct {
	// path is the filesystem location of the channel record.
	path string
	// mu serialises access to the record file.
	mu sync.Mutex
}

// ErrNotFound is returned when the channel record does not exist yet.
var ErrNotFound = errors.New("channel record not found")

// NewFileRepository creates a repository that reads/writes the record at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the channel record.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the channel from disk.
func (r *FileRepository) Load(_ context.Context) (domain.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.Stable, ErrNotFound
		}

		return domain.Stable, fmt.Errorf("read channel file: %w", err)
	}

	var record wrapperspb.StringValue
	if err = protojson.Unmarshal(contents, &record); err != nil {
		return domain.Stable, fmt.Errorf("decode channel file: %w", err)
	}

	c, err := domain.FromTag(record.GetValue())
	if err != nil {
		return domain.Stable, fmt.Errorf("decode channel file: %w", err)
	}

	return c, nil
}

// Save writes the channel to disk, creating the config directory if needed.
func (r *FileRepository) Save(_ context.Context, c domain.Channel) error {
	if !c.IsValid() {
		return fmt.Errorf("encode channel: %w", domain.ErrUnknown)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := protojson.Marshal(wrapperspb.String(c.String()))
	if err != nil {
		return fmt.Errorf("encode channel: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(r.path), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	if err = os.WriteFile(r.path, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write channel file: %w", err)
	}

	return nil
}
