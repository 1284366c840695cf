package release

import "context"

// Metadata is the display-only projection of an available update.
type Metadata struct {
	// Version is the version offered by the update service.
	Version string `json:"version"`
	// CurrentVersion is the version of the running build.
	CurrentVersion string `json:"currentVersion"`
}

// Update is a verified, not-yet-installed build issued by the update service.
type Update interface {
	// Version returns the version the update installs.
	Version() string
	// CurrentVersion returns the version that was running when the update was found.
	CurrentVersion() string
	// DownloadAndInstall streams the artifact, reporting to progress, and applies it.
	DownloadAndInstall(ctx context.Context, progress Progress) error
}

// Progress receives download notifications.
type Progress interface {
	// Chunk is called after every received chunk with the running byte count.
	// The total is only meaningful when known is true.
	Chunk(received, total int64, known bool)
	// Finished is called once after the whole artifact has been received.
	Finished()
}

// MetadataOf projects the display fields of an update.
func MetadataOf(u Update) *Metadata {
	if u == nil {
		return nil
	}

	return &Metadata{
		Version:        u.Version(),
		CurrentVersion: u.CurrentVersion(),
	}
}
