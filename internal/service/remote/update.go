package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/oshokin/release-channels/internal/domain/release"
	"github.com/oshokin/release-channels/internal/logger"
)

const (
	// chunkSize is the read size used while streaming an artifact.
	chunkSize = 32 * 1024

	// MaxArtifactSize caps the size of a downloaded artifact.
	MaxArtifactSize int64 = 512 << 20
)

// errStalled is the cancellation cause when an artifact download stops making progress.
var errStalled = errors.New("no artifact data received within the timeout")

// Update is a release offered by the update host.
type Update struct {
	client         *Client
	version        string
	currentVersion string
	notes          string
	asset          Asset
}

// Version implements release.Update.
func (u *Update) Version() string {
	return u.version
}

// CurrentVersion implements release.Update.
func (u *Update) CurrentVersion() string {
	return u.currentVersion
}

// Notes returns the release notes sent by the host.
func (u *Update) Notes() string {
	return u.notes
}

// DownloadAndInstall streams the artifact and replaces the target binary.
func (u *Update) DownloadAndInstall(ctx context.Context, progress release.Progress) error {
	if progress == nil {
		progress = release.Discard
	}

	signature, err := decodeSignature(u.asset.Signature)
	if err != nil {
		return err
	}

	data, err := u.download(ctx, progress)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Applying update", "version", u.version, "bytes", len(data))

	return u.client.applier.apply(ctx, data, signature)
}

// download reads the artifact into memory, notifying progress after every chunk.
// The transfer has no total deadline; it fails when the host sends nothing for
// longer than the client timeout or the body exceeds the size cap.
func (u *Update) download(ctx context.Context, progress release.Progress) ([]byte, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	idle := time.AfterFunc(u.client.timeout, func() {
		cancel(errStalled)
	})
	defer idle.Stop()

	response, err := u.client.get(ctx, u.client.downloadClient, u.asset.URL, "application/octet-stream")
	if err != nil {
		return nil, stallCause(ctx, err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s, %s: %w", u.asset.URL, response.Status, ErrBadStatus)
	}

	var (
		limit  = u.client.maxArtifactSize
		total  = response.ContentLength
		known  = total >= 0
		buffer bytes.Buffer
		chunk  = make([]byte, chunkSize)
	)

	if total > limit {
		return nil, fmt.Errorf("%w: artifact is %d bytes, limit is %d", ErrInvalidManifest, total, limit)
	}

	if known {
		buffer.Grow(int(total))
	}

	var (
		received int64
		body     = io.LimitReader(response.Body, limit+1)
	)

	for {
		n, readErr := body.Read(chunk)
		if n > 0 {
			idle.Reset(u.client.timeout)

			received += int64(n)
			if received > limit {
				return nil, fmt.Errorf("%w: artifact exceeds %d bytes", ErrInvalidManifest, limit)
			}

			buffer.Write(chunk[:n])
			progress.Chunk(received, total, known)
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return nil, stallCause(ctx, fmt.Errorf("%w: read artifact: %w", ErrTransport, readErr))
		}
	}

	progress.Finished()

	return buffer.Bytes(), nil
}

// stallCause reports a stalled transfer instead of the bare cancellation it caused.
func stallCause(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); errors.Is(cause, errStalled) {
		return fmt.Errorf("%w: %w", ErrTransport, cause)
	}

	return err
}

func decodeSignature(encoded string) ([]byte, error) {
	if encoded == "" {
		return nil, nil
	}

	signature, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: signature: %w", ErrInvalidManifest, err)
	}

	return signature, nil
}
