// Package types provides core data types for the boxsync template manager.
// It includes structures for file records and directory snapshots exchanged
// between the comparison, analysis, and resolution layers, along with
// utility functions for formatting file sizes.
package types

import (
	"path"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// FileRecord represents a single file within a directory snapshot.
// It captures the metadata needed for structural comparison; Content is
// loaded selectively and may be nil for binary or oversized files.
type FileRecord struct {
	// RelPath is the path of the file relative to the snapshot root,
	// always slash-separated.
	RelPath string `json:"rel_path"`

	// Size is the file size in bytes.
	Size int64 `json:"size"`

	// Ext is the lowercased file extension including the leading dot,
	// or "" if the file has none.
	Ext string `json:"ext"`

	// Content holds the file content when it was loaded for comparison.
	// A nil Content means the content was not loaded; an empty non-nil
	// slice means the file is empty.
	Content []byte `json:"-"`

	// LastModified is the modification time of the file.
	LastModified time.Time `json:"last_modified"`
}

// HasContent reports whether the file content was loaded.
func (f *FileRecord) HasContent() bool {
	return f.Content != nil
}

// HumanSize returns the file size formatted as a human-readable string.
func (f *FileRecord) HumanSize() string {
	return FormatSize(f.Size)
}

// DirectorySnapshot is an ordered collection of file records representing
// the state of a box's file tree at a point in time. It may describe the
// last-known-local state, a freshly scanned state, or a remote state
// supplied by a registry client.
type DirectorySnapshot struct {
	// Root is the directory the snapshot was taken from. Empty for
	// snapshots assembled from remote file lists.
	Root string `json:"root"`

	// Files contains the snapshot's file records sorted by RelPath.
	Files []FileRecord `json:"files"`

	// TakenAt is when the snapshot was captured.
	TakenAt time.Time `json:"taken_at"`

	index map[string]int
}

// NewSnapshot builds a snapshot from the given records. The records are
// sorted by relative path and indexed for lookup.
func NewSnapshot(root string, files []FileRecord) *DirectorySnapshot {
	s := &DirectorySnapshot{
		Root:    root,
		Files:   files,
		TakenAt: time.Now().UTC(),
	}
	s.Reindex()
	return s
}

// Reindex sorts the file records by relative path and rebuilds the lookup
// index. Callers that mutate Files directly must call Reindex before using
// File or Has.
func (s *DirectorySnapshot) Reindex() {
	sort.Slice(s.Files, func(i, j int) bool {
		return s.Files[i].RelPath < s.Files[j].RelPath
	})
	s.index = make(map[string]int, len(s.Files))
	for i := range s.Files {
		s.index[s.Files[i].RelPath] = i
	}
}

// File returns the record for the given relative path, or nil if the
// snapshot does not contain it.
func (s *DirectorySnapshot) File(relPath string) *FileRecord {
	if s.index == nil {
		s.Reindex()
	}
	if i, ok := s.index[relPath]; ok {
		return &s.Files[i]
	}
	return nil
}

// Has reports whether the snapshot contains the given relative path.
func (s *DirectorySnapshot) Has(relPath string) bool {
	return s.File(relPath) != nil
}

// Paths returns the sorted relative paths of all files in the snapshot.
func (s *DirectorySnapshot) Paths() []string {
	paths := make([]string, len(s.Files))
	for i := range s.Files {
		paths[i] = s.Files[i].RelPath
	}
	return paths
}

// TotalSize returns the sum of all file sizes in the snapshot.
func (s *DirectorySnapshot) TotalSize() int64 {
	var total int64
	for i := range s.Files {
		total += s.Files[i].Size
	}
	return total
}

// Ext returns the lowercased extension for a relative path, including the
// leading dot, or "" when there is none.
func Ext(relPath string) string {
	return strings.ToLower(path.Ext(relPath))
}

// FormatSize converts a size in bytes to a human-readable string using
// binary (IEC) units for consistency with common filesystem tools.
func FormatSize(bytes int64) string {
	return humanize.IBytes(uint64(bytes))
}
