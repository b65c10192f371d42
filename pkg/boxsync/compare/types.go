// Package compare performs structural comparison between two directory
// snapshots: per-file added/deleted/modified/unchanged classification, a
// similarity score for modified files, and manifest-level conflict
// detection through the manifest store.
package compare

import (
	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
	"github.com/jamesainslie/boxsync/pkg/boxsync/types"
)

// FileStatus classifies one file across the old and new snapshots.
type FileStatus string

// File statuses.
const (
	StatusAdded     FileStatus = "added"
	StatusDeleted   FileStatus = "deleted"
	StatusModified  FileStatus = "modified"
	StatusUnchanged FileStatus = "unchanged"
)

// FileChanges details what differs for a modified file.
type FileChanges struct {
	// SizeChange is newSize minus oldSize.
	SizeChange int64 `json:"size_change"`

	// ContentChanged is true when loaded contents differ.
	ContentChanged bool `json:"content_changed"`

	// ExtensionChanged is true when the file extension differs.
	ExtensionChanged bool `json:"extension_changed"`
}

// FileComparison is the comparison result for one path present in either
// snapshot.
type FileComparison struct {
	// Path is the slash-separated relative path.
	Path string `json:"path"`

	// Status classifies the file.
	Status FileStatus `json:"status"`

	// OldFile is the record from the old snapshot, nil for added files.
	OldFile *types.FileRecord `json:"old_file,omitempty"`

	// NewFile is the record from the new snapshot, nil for deleted files.
	NewFile *types.FileRecord `json:"new_file,omitempty"`

	// Similarity is the [0,1] content-overlap score, set only for
	// modified files.
	Similarity float64 `json:"similarity,omitempty"`

	// Changes details the differences, set only for modified files.
	Changes *FileChanges `json:"changes,omitempty"`
}

// ConflictInfo is emitted for every modified file.
type ConflictInfo struct {
	// Path is the modified file.
	Path string `json:"path"`

	// Similarity is the file's content-overlap score.
	Similarity float64 `json:"similarity"`

	// Severity derives from similarity: >=0.8 low, >=0.5 medium,
	// below high.
	Severity manifest.Severity `json:"severity"`

	// Description summarizes the conflict for display.
	Description string `json:"description"`
}

// Summary aggregates per-status counts.
type Summary struct {
	Added     int `json:"added"`
	Deleted   int `json:"deleted"`
	Modified  int `json:"modified"`
	Unchanged int `json:"unchanged"`
	TotalOld  int `json:"total_old"`
	TotalNew  int `json:"total_new"`
}

// ManifestConflictType classifies a manifest-level conflict.
type ManifestConflictType string

// Manifest conflict types.
const (
	ConflictManifestVersion   ManifestConflictType = "manifest_version"
	ConflictManifestMetadata  ManifestConflictType = "manifest_metadata"
	ConflictManifestMissing   ManifestConflictType = "manifest_missing"
	ConflictManifestCorrupted ManifestConflictType = "manifest_corrupted"
)

// ManifestConflictInfo is one manifest-level conflict.
type ManifestConflictInfo struct {
	// Type classifies the conflict.
	Type ManifestConflictType `json:"type"`

	// ManifestField is the differing field, when field-scoped.
	ManifestField string `json:"manifest_field,omitempty"`

	// Severity is the conflict's impact.
	Severity manifest.Severity `json:"severity"`

	// Description summarizes the conflict for display.
	Description string `json:"description"`
}

// Manifest summary statuses.
const (
	ManifestStatusNew      = "new"
	ManifestStatusModified = "modified"
)

// ManifestSummary aggregates the manifest-level comparison.
type ManifestSummary struct {
	// Status is new (no local manifest) or modified.
	Status string `json:"status"`

	// Conflicts lists the manifest-level conflicts.
	Conflicts []ManifestConflictInfo `json:"conflicts"`

	// RequiresReview is true when any conflict severity is high or
	// critical.
	RequiresReview bool `json:"requires_review"`
}

// DirectoryComparison is the aggregate comparison of two snapshots.
type DirectoryComparison struct {
	// Files holds one comparison per path, sorted by path.
	Files []FileComparison `json:"files"`

	// Summary aggregates the per-status counts.
	Summary Summary `json:"summary"`

	// Conflicts holds one entry per modified file.
	Conflicts []ConflictInfo `json:"conflicts"`

	// Manifest is the manifest-level comparison, when requested.
	Manifest *ManifestSummary `json:"manifest,omitempty"`
}

// ChangeStats condenses a comparison for quick triage.
type ChangeStats struct {
	// TotalChanges counts added, modified, and deleted files.
	TotalChanges int `json:"total_changes"`

	// RiskLevel is low, medium, or high.
	RiskLevel string `json:"risk_level"`

	// RequiresReview is true when the risk level is high.
	RequiresReview bool `json:"requires_review"`
}
