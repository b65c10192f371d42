// Package resolve decides how detected changes are applied: it builds a
// resolution plan per changed file and per manifest conflict, determines
// which plans can be applied automatically at the configured aggressiveness
// level, and tracks a resolution session through to application.
package resolve

import (
	"time"

	"github.com/jamesainslie/boxsync/pkg/boxsync/analyze"
	"github.com/jamesainslie/boxsync/pkg/boxsync/compare"
)

// Action is the chosen way to resolve one conflict.
type Action string

// Resolution actions. ActionManualMerge applies to manifest conflicts only.
const (
	ActionKeepExisting     Action = "keep_existing"
	ActionUseNew           Action = "use_new"
	ActionMerge            Action = "merge"
	ActionSkip             Action = "skip"
	ActionBackupAndReplace Action = "backup_and_replace"
	ActionManualMerge      Action = "manual_merge"
)

// AutoResolveLevel sets how aggressively conflicts are resolved without a
// human decision.
type AutoResolveLevel string

// Auto-resolve levels in ascending aggressiveness.
const (
	AutoResolveNone       AutoResolveLevel = "none"
	AutoResolveSafe       AutoResolveLevel = "safe"
	AutoResolveModerate   AutoResolveLevel = "moderate"
	AutoResolveAggressive AutoResolveLevel = "aggressive"
)

// Options is the resolution policy supplied by the caller (typically the
// CLI layer).
type Options struct {
	// AutoResolveLevel sets the auto-resolution aggressiveness.
	AutoResolveLevel AutoResolveLevel

	// CreateBackups makes replacement actions keep a backup copy.
	CreateBackups bool

	// InteractiveMode routes every plan to manual review.
	InteractiveMode bool

	// DryRun makes Apply describe what would happen without side
	// effects.
	DryRun bool

	// BackupDir is where backup copies are written.
	BackupDir string
}

// Plan pairs one conflict with its chosen action and the reason for it.
// Exactly one of File and ManifestConflict is set.
type Plan struct {
	// Path is the file path, or the manifest field for manifest plans.
	Path string `json:"path"`

	// File is the analyzed file change this plan resolves.
	File *analyze.FileChangeAnalysis `json:"file,omitempty"`

	// ManifestConflict is the manifest conflict this plan resolves.
	ManifestConflict *compare.ManifestConflictInfo `json:"manifest_conflict,omitempty"`

	// Action is the chosen resolution.
	Action Action `json:"action"`

	// Reason explains the choice.
	Reason string `json:"reason"`

	// Priority ranks the plan for review ordering. For file plans it is
	// the file's impact level; manifest plans have their own table.
	Priority analyze.ImpactLevel `json:"priority"`

	// BackupPath is the destination for backup_and_replace plans.
	BackupPath string `json:"backup_path,omitempty"`

	// Decided is true once the action has been settled, either by
	// auto-resolution or by a human. Apply never executes an undecided
	// plan; its Action is only the proposed default.
	Decided bool `json:"decided"`
}

// IsDeletion reports whether the plan resolves a file deletion.
func (p *Plan) IsDeletion() bool {
	return p.File != nil && p.File.ChangeType == compare.StatusDeleted
}

// Session tracks all resolution plans for one sync attempt.
type Session struct {
	// ID identifies the session.
	ID string `json:"id"`

	// StartedAt is when the session was created.
	StartedAt time.Time `json:"started_at"`

	// AutoResolved holds the plans applied without a human decision.
	AutoResolved []*Plan `json:"auto_resolved"`

	// RequiresManualReview holds the plans awaiting a human decision.
	RequiresManualReview []*Plan `json:"requires_manual_review"`

	// ResolvedConflicts counts decided plans (auto plus interactive).
	ResolvedConflicts int `json:"resolved_conflicts"`

	// TotalConflicts counts all plans in the session.
	TotalConflicts int `json:"total_conflicts"`
}

// Plans returns every plan in the session, auto-resolved first.
func (s *Session) Plans() []*Plan {
	out := make([]*Plan, 0, len(s.AutoResolved)+len(s.RequiresManualReview))
	out = append(out, s.AutoResolved...)
	out = append(out, s.RequiresManualReview...)
	return out
}

// Complete reports whether every conflict has been decided.
func (s *Session) Complete() bool {
	return s.ResolvedConflicts >= s.TotalConflicts
}

// ValidationResult is the outcome of validating a single plan.
type ValidationResult struct {
	// Valid is false when the plan cannot be applied as-is.
	Valid bool `json:"valid"`

	// Errors block this plan's application.
	Errors []string `json:"errors,omitempty"`

	// Warnings flag risky but permitted choices.
	Warnings []string `json:"warnings,omitempty"`
}

// ApplyResult is the outcome of applying a single plan.
type ApplyResult struct {
	// Path is the file the plan applied to.
	Path string `json:"path"`

	// Action is the action that was applied.
	Action Action `json:"action"`

	// Success is false when the action failed.
	Success bool `json:"success"`

	// Message describes what happened.
	Message string `json:"message"`

	// BackupCreated is the backup path when one was written.
	BackupCreated string `json:"backup_created,omitempty"`

	// DryRun marks a no-op result.
	DryRun bool `json:"dry_run,omitempty"`

	// Held marks a plan left untouched because nobody decided it.
	Held bool `json:"held,omitempty"`
}
