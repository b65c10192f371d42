package resolve

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jamesainslie/boxsync/pkg/boxsync/analyze"
	"github.com/jamesainslie/boxsync/pkg/boxsync/compare"
	"github.com/jamesainslie/boxsync/pkg/boxsync/logging"
	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
)

// Resolver builds resolution plans. Plans are deterministic given the
// change, the configured options, and the clock (backup paths are
// timestamped).
type Resolver struct {
	opts Options
	log  *logging.Logger

	// now is the clock, swappable in tests.
	now func() time.Time
}

// New creates a Resolver with the given policy options.
func New(opts Options) *Resolver {
	if opts.AutoResolveLevel == "" {
		opts.AutoResolveLevel = AutoResolveSafe
	}
	return &Resolver{
		opts: opts,
		log:  logging.Get("resolve"),
		now:  time.Now,
	}
}

// Options returns the resolver's policy options.
func (r *Resolver) Options() Options { return r.opts }

// PlanFile builds the default resolution plan for one analyzed file
// change:
//
//	addition                    use_new
//	deletion                    keep_existing, never auto-applied
//	modification, critical      backup_and_replace if backups else keep_existing
//	modification, high          backup_and_replace only at aggressive
//	modification, medium        backup_and_replace/use_new at moderate+
//	modification, low           use_new
func (r *Resolver) PlanFile(f *analyze.FileChangeAnalysis) *Plan {
	plan := &Plan{
		Path:     f.Path,
		File:     f,
		Priority: f.Impact.Level,
	}

	switch f.ChangeType {
	case compare.StatusAdded:
		plan.Action = ActionUseNew
		plan.Reason = "new file, no local version to conflict with"
		return plan
	case compare.StatusDeleted:
		plan.Action = ActionKeepExisting
		plan.Reason = "deletions are never applied automatically"
		return plan
	}

	switch f.Impact.Level {
	case analyze.ImpactCritical:
		if r.opts.CreateBackups {
			r.planBackupReplace(plan, "critical file replaced only with a backup")
		} else {
			plan.Action = ActionKeepExisting
			plan.Reason = "critical file and backups are disabled"
		}
	case analyze.ImpactHigh:
		if r.opts.AutoResolveLevel == AutoResolveAggressive {
			r.planBackupReplace(plan, "high-impact change accepted at aggressive level")
		} else {
			plan.Action = ActionKeepExisting
			plan.Reason = "high-impact change held for review"
		}
	case analyze.ImpactMedium:
		if r.opts.AutoResolveLevel == AutoResolveModerate || r.opts.AutoResolveLevel == AutoResolveAggressive {
			if r.opts.CreateBackups {
				r.planBackupReplace(plan, "medium-impact change accepted with backup")
			} else {
				plan.Action = ActionUseNew
				plan.Reason = "medium-impact change accepted"
			}
		} else {
			plan.Action = ActionKeepExisting
			plan.Reason = "medium-impact change held at conservative level"
		}
	default:
		plan.Action = ActionUseNew
		plan.Reason = "low-impact change"
	}

	return plan
}

// planBackupReplace sets the plan to backup_and_replace with a generated
// backup destination.
func (r *Resolver) planBackupReplace(plan *Plan, reason string) {
	plan.Action = ActionBackupAndReplace
	plan.Reason = reason
	plan.BackupPath = r.GenerateBackupPath(plan.Path, r.opts.BackupDir)
}

// PlanManifestConflict builds the default plan for one manifest-level
// conflict. Each conflict type has its own default action and priority:
// version conflicts are critical when their severity is high, corrupted
// manifests are always critical and always manual.
func (r *Resolver) PlanManifestConflict(c *compare.ManifestConflictInfo) *Plan {
	plan := &Plan{
		Path:             manifestPlanPath(c),
		ManifestConflict: c,
	}

	switch c.Type {
	case compare.ConflictManifestVersion:
		if c.Severity == manifest.SeverityHigh || c.Severity == manifest.SeverityCritical {
			plan.Priority = analyze.ImpactCritical
		} else {
			plan.Priority = analyze.ImpactHigh
		}
		plan.Action = ActionUseNew
		plan.Reason = "adopt the incoming manifest version"
	case compare.ConflictManifestCorrupted:
		plan.Priority = analyze.ImpactCritical
		plan.Action = ActionManualMerge
		plan.Reason = "corrupted manifest requires a human decision"
	case compare.ConflictManifestMissing:
		plan.Priority = severityToImpact(c.Severity)
		plan.Action = ActionUseNew
		plan.Reason = "no local manifest; adopt the incoming one"
	default: // manifest_metadata
		plan.Priority = severityToImpact(c.Severity)
		if plan.Priority == analyze.ImpactHigh || plan.Priority == analyze.ImpactCritical {
			plan.Action = ActionManualMerge
			plan.Reason = "high-impact manifest field change held for review"
		} else {
			plan.Action = ActionUseNew
			plan.Reason = "informational manifest field change"
		}
	}

	return plan
}

// CanAutoResolve reports whether the plan may be applied without a human
// decision. Interactive mode and critical priority always force review;
// otherwise the level decides: none never, safe only low-impact additions
// (and their manifest analog), moderate anything low plus non-deletion
// medium changes, aggressive any non-critical non-deletion change.
func (r *Resolver) CanAutoResolve(plan *Plan) bool {
	if r.opts.InteractiveMode {
		return false
	}
	if plan.Priority == analyze.ImpactCritical {
		return false
	}

	switch r.opts.AutoResolveLevel {
	case AutoResolveNone:
		return false
	case AutoResolveSafe:
		if plan.File != nil {
			return plan.Priority == analyze.ImpactLow && plan.File.ChangeType == compare.StatusAdded
		}
		return plan.Priority == analyze.ImpactLow &&
			plan.ManifestConflict.Type == compare.ConflictManifestMissing
	case AutoResolveModerate:
		if plan.IsDeletion() {
			return plan.Priority == analyze.ImpactLow
		}
		return plan.Priority == analyze.ImpactLow || plan.Priority == analyze.ImpactMedium
	case AutoResolveAggressive:
		return !plan.IsDeletion()
	default:
		return false
	}
}

// ValidateResolutionPlan checks a plan before application. A missing
// backup path on a backup_and_replace plan is an error; risky but
// permitted choices produce warnings only.
func ValidateResolutionPlan(plan *Plan) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if plan.Action == ActionBackupAndReplace && plan.BackupPath == "" {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("%s: backup_and_replace requires a backup path", plan.Path))
	}

	if plan.Priority == analyze.ImpactCritical {
		switch plan.Action {
		case ActionUseNew:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: critical file replaced without a backup", plan.Path))
		case ActionSkip:
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("%s: critical file change skipped", plan.Path))
		}
	}
	if plan.File != nil && plan.File.Content.HasBreakingChanges && plan.Action == ActionUseNew {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%s: breaking change applied without a backup", plan.Path))
	}

	return result
}

// GenerateBackupPath returns the deterministic backup destination for a
// file: the original directory structure under backupDir, with the
// timestamp embedded in the name and the extension preserved, e.g.
// /backups/src/a/B.backup-2024-06-15T10-30-00Z.tsx.
func (r *Resolver) GenerateBackupPath(relPath, backupDir string) string {
	ext := path.Ext(relPath)
	stem := strings.TrimSuffix(path.Base(relPath), ext)

	ts := r.now().UTC().Format(time.RFC3339)
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)

	return path.Join(backupDir, path.Dir(relPath), fmt.Sprintf("%s.backup-%s%s", stem, ts, ext))
}

// manifestPlanPath labels a manifest plan by its field when field-scoped.
func manifestPlanPath(c *compare.ManifestConflictInfo) string {
	if c.ManifestField != "" {
		return "manifest:" + c.ManifestField
	}
	return "manifest:" + string(c.Type)
}

// severityToImpact maps manifest severities onto impact levels.
func severityToImpact(s manifest.Severity) analyze.ImpactLevel {
	switch s {
	case manifest.SeverityCritical:
		return analyze.ImpactCritical
	case manifest.SeverityHigh:
		return analyze.ImpactHigh
	case manifest.SeverityMedium:
		return analyze.ImpactMedium
	default:
		return analyze.ImpactLow
	}
}
