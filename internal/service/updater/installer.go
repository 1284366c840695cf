package updater

import (
	"context"
	"fmt"

	"github.com/oshokin/release-channels/internal/domain/release"
	"github.com/oshokin/release-channels/internal/logger"
)

// Installer downloads and applies the update parked in a slot.
type Installer struct {
	slot *Slot
}

// NewInstaller creates an installer consuming slot.
func NewInstaller(slot *Slot) *Installer {
	return &Installer{slot: slot}
}

// Install takes the pending update and installs it, reporting to progress.
// The update is consumed even when installation fails; a fresh check is
// needed to try again.
func (i *Installer) Install(ctx context.Context, progress release.Progress) error {
	update, ok := i.slot.Take()
	if !ok {
		return ErrNoPendingUpdate
	}

	ctx = logger.WithKV(ctx, "version", update.Version())
	logger.Info(ctx, "Installing update")

	if err := update.DownloadAndInstall(ctx, release.Tee(progress, logProgress(ctx))); err != nil {
		logger.ErrorKV(ctx, "Update install failed", "error", err)

		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}

	logger.Info(ctx, "Update installed, restart to apply")

	return nil
}

// logProgress reports download progress to the context logger.
func logProgress(ctx context.Context) release.Progress {
	return release.ProgressFuncs{
		OnChunk: func(received, total int64, known bool) {
			if known {
				logger.Debugf(ctx, "Downloaded %d bytes from %d", received, total)
				return
			}

			logger.Debugf(ctx, "Downloaded %d bytes from unknown", received)
		},
		OnFinished: func() {
			logger.Info(ctx, "Download completed")
		},
	}
}
