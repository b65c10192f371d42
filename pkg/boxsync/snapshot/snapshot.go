// Package snapshot captures directory trees as comparable snapshots. It is
// the read side of the local file collaborator: the comparison core never
// touches the filesystem itself, it consumes snapshots produced here.
package snapshot

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charlievieth/fastwalk"

	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
	"github.com/jamesainslie/boxsync/pkg/boxsync/types"
)

// DefaultMaxContentSize caps how large a file may be before its content is
// skipped during snapshotting (1 MiB). Oversized and binary files still
// appear in the snapshot; they are just compared structurally.
const DefaultMaxContentSize = 1 << 20

// Options configures a scan.
type Options struct {
	// Exclude lists glob patterns for paths to skip, compiled once per
	// scan.
	Exclude []string

	// MaxContentSize is the largest file whose content is loaded.
	// Zero uses DefaultMaxContentSize.
	MaxContentSize int64

	// SkipContent disables content loading entirely, producing a purely
	// structural snapshot.
	SkipContent bool

	// HiddenStateDir is the manifest state directory name to always
	// skip (the store's hidden subdirectory). Empty skips nothing extra.
	HiddenStateDir string
}

// Scan walks root and returns a DirectorySnapshot of its files. File
// contents are loaded selectively: text-sized files up to MaxContentSize.
// The walk honors ctx cancellation between entries.
func Scan(ctx context.Context, root string, opts Options) (*types.DirectorySnapshot, error) {
	log := logging.Get("snapshot")

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, err
	}

	maxContent := opts.MaxContentSize
	if maxContent <= 0 {
		maxContent = DefaultMaxContentSize
	}

	matcher, err := CompileExcludes(opts.Exclude)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		records []types.FileRecord
	)

	conf := fastwalk.Config{Follow: false}
	walkErr := fastwalk.Walk(&conf, absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("skipping unreadable entry", "path", path, "err", err)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if path == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if opts.HiddenStateDir != "" && d.Name() == opts.HiddenStateDir {
				return filepath.SkipDir
			}
			if matcher.Match(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if matcher.Match(rel) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			log.Warn("skipping unstatable file", "path", path, "err", err)
			return nil
		}

		record := types.FileRecord{
			RelPath:      rel,
			Size:         info.Size(),
			Ext:          types.Ext(rel),
			LastModified: info.ModTime(),
		}

		if !opts.SkipContent && info.Size() <= maxContent {
			content, err := os.ReadFile(path)
			if err != nil {
				log.Warn("skipping unreadable content", "path", path, "err", err)
			} else {
				record.Content = content
			}
		}

		mu.Lock()
		records = append(records, record)
		mu.Unlock()
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}

	snap := types.NewSnapshot(absRoot, records)
	log.Debug("snapshot taken", "root", absRoot, "files", len(snap.Files))
	return snap, nil
}
