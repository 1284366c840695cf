package remote

import (
	"bytes"
	"context"
	"crypto"
	"crypto/ed25519"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/mitchellh/go-ps"

	"github.com/oshokin/release-channels/internal/config"
	"github.com/oshokin/release-channels/internal/logger"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DefaultFileMode is applied to the replaced binary.
	DefaultFileMode os.FileMode = 0o755

	// DefaultChecksumFunction is the hash signed by the release pipeline.
	DefaultChecksumFunction crypto.Hash = crypto.SHA512
)

var errUnsupportedKey = errors.New("unsupported public key type")

// applier replaces the target binary with a downloaded artifact.
type applier struct {
	// targetPath is the binary to replace; empty means the running executable.
	targetPath string
	// publicKey enables signature verification when set.
	publicKey ed25519.PublicKey
	// terminateRunning kills other processes of the target before applying.
	terminateRunning bool
}

// apply verifies and installs data over the target binary.
func (a *applier) apply(ctx context.Context, data, signature []byte) error {
	target, err := a.resolveTarget()
	if err != nil {
		return err
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: DefaultFileMode,
		Hash:       DefaultChecksumFunction,
	}

	switch {
	case a.publicKey != nil && signature == nil:
		return ErrMissingSignature
	case a.publicKey != nil:
		options.PublicKey = a.publicKey
		options.Signature = signature
		options.Verifier = ed25519Verifier{}
	case signature != nil:
		logger.Warn(ctx, "Artifact is signed but no public key is configured, skipping verification")
	}

	// The target must exist so it can be moved aside.
	if _, err = os.Stat(target); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(target, nil, DefaultFileMode); err != nil {
			return fmt.Errorf("%w: create target: %w", ErrApply, err)
		}
	}

	switch {
	case !a.terminateRunning:
	case config.SharesExecutableName(target):
		logger.WarnKV(ctx, "Not terminating running instances of this tool", "executable", filepath.Base(target))
	default:
		logger.InfoKV(ctx, "Terminating running instances", "executable", filepath.Base(target))

		if err = terminateProcessByName(filepath.Base(target)); err != nil {
			return fmt.Errorf("%w: terminate running instances: %w", ErrApply, err)
		}
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		if errors.Is(err, ErrBadSignature) {
			return err
		}

		return fmt.Errorf("%w: %w", ErrApply, err)
	}

	oldFileName := target + ".old"
	if _, err = os.Stat(oldFileName); err == nil {
		_ = os.Remove(oldFileName)
	}

	logger.InfoKV(ctx, "Update applied", "target", target)

	return nil
}

func (a *applier) resolveTarget() (string, error) {
	if a.targetPath != "" {
		return filepath.Clean(a.targetPath), nil
	}

	executable, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("%w: locate executable: %w", ErrApply, err)
	}

	return filepath.EvalSymlinks(executable)
}

// ed25519Verifier checks signatures made over the artifact checksum.
type ed25519Verifier struct{}

// VerifySignature implements goupdate.Verifier.
func (ed25519Verifier) VerifySignature(checksum, signature []byte, _ crypto.Hash, publicKey crypto.PublicKey) error {
	key, ok := publicKey.(ed25519.PublicKey)
	if !ok {
		return fmt.Errorf("%w: %T", errUnsupportedKey, publicKey)
	}

	if !ed25519.Verify(key, checksum, signature) {
		return ErrBadSignature
	}

	return nil
}

// terminateProcessByName kills processes with the provided executable name, except this one.
func terminateProcessByName(processName string) error {
	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if process.Executable() != processName {
			continue
		}

		var runningProcess *os.Process

		runningProcess, err = os.FindProcess(process.Pid())
		if err != nil {
			return err
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}
