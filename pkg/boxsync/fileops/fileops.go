// Package fileops performs the filesystem side of conflict resolution:
// copying incoming files into a target directory, writing backup copies,
// and removing files, preferring the system trash for removals.
package fileops

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
)

// Ops applies resolved changes between a source tree (the incoming
// version) and a target tree (the local directory).
type Ops struct {
	sourceDir string
	targetDir string
	useTrash  bool
	log       *logging.Logger
}

// Option configures Ops.
type Option func(*Ops)

// WithTrash routes removals through the system trash instead of
// deleting permanently.
func WithTrash(enabled bool) Option {
	return func(o *Ops) { o.useTrash = enabled }
}

// New creates an Ops that copies from sourceDir into targetDir.
func New(sourceDir, targetDir string, opts ...Option) *Ops {
	o := &Ops{
		sourceDir: sourceDir,
		targetDir: targetDir,
		useTrash:  true,
		log:       logging.Get("fileops"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ApplyNew copies the incoming version of relPath over the target copy.
// The write is atomic: content lands in a temp file first and is renamed
// into place.
func (o *Ops) ApplyNew(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := filepath.Join(o.sourceDir, filepath.FromSlash(relPath))
	dst := filepath.Join(o.targetDir, filepath.FromSlash(relPath))

	if err := copyFile(src, dst); err != nil {
		return fmt.Errorf("apply %q: %w", relPath, err)
	}
	o.log.Debug("applied incoming file", "path", relPath)
	return nil
}

// Backup copies the current target version of relPath to backupPath,
// creating parent directories as needed.
func (o *Ops) Backup(ctx context.Context, relPath, backupPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src := filepath.Join(o.targetDir, filepath.FromSlash(relPath))

	if err := copyFile(src, filepath.FromSlash(backupPath)); err != nil {
		return fmt.Errorf("backup %q: %w", relPath, err)
	}
	o.log.Debug("backup written", "path", relPath, "backup", backupPath)
	return nil
}

// Remove deletes relPath from the target directory, via the system trash
// when enabled and available.
func (o *Ops) Remove(ctx context.Context, relPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := filepath.Join(o.targetDir, filepath.FromSlash(relPath))
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("remove %q: %w", relPath, err)
	}

	if o.useTrash {
		if err := moveToTrash(ctx, target); err == nil {
			o.log.Debug("moved to trash", "path", relPath)
			return nil
		}
	}
	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("remove %q: %w", relPath, err)
	}
	o.log.Debug("removed", "path", relPath)
	return nil
}

// copyFile copies src to dst atomically, preserving the source mode.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".boxsync-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, info.Mode().Perm()); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
