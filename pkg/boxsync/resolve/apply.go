package resolve

import (
	"context"
	"fmt"

	"github.com/jamesainslie/boxsync/pkg/boxsync/manifest"
)

// FileOps performs the filesystem side of plan application. The concrete
// implementation lives in the fileops package; tests substitute fakes.
type FileOps interface {
	// ApplyNew writes the incoming version of relPath into the target
	// directory.
	ApplyNew(ctx context.Context, relPath string) error

	// Backup copies the current version of relPath to backupPath.
	Backup(ctx context.Context, relPath, backupPath string) error

	// Remove deletes relPath from the target directory.
	Remove(ctx context.Context, relPath string) error
}

// Apply executes every decided plan in the session. Undecided plans are
// held untouched: their Action is only the proposed default, and nothing
// runs it until auto-resolution or a human marks the plan decided. Each
// plan's failure is contained in its result; application continues past
// failures so the caller sees the full outcome. In dry-run mode nothing
// touches disk.
func (r *Resolver) Apply(ctx context.Context, session *Session, ops FileOps) []ApplyResult {
	plans := session.Plans()
	results := make([]ApplyResult, 0, len(plans))

	for _, plan := range plans {
		if err := ctx.Err(); err != nil {
			results = append(results, ApplyResult{
				Path:    plan.Path,
				Action:  plan.Action,
				Message: fmt.Sprintf("not applied: %v", err),
			})
			continue
		}
		if !plan.Decided {
			results = append(results, ApplyResult{
				Path:    plan.Path,
				Action:  plan.Action,
				Success: true,
				Held:    true,
				Message: "held for manual review",
			})
			continue
		}
		results = append(results, r.applyPlan(ctx, plan, ops))
	}
	return results
}

func (r *Resolver) applyPlan(ctx context.Context, plan *Plan, ops FileOps) ApplyResult {
	result := ApplyResult{Path: plan.Path, Action: plan.Action}

	if validation := ValidateResolutionPlan(plan); !validation.Valid {
		result.Message = validation.Errors[0]
		return result
	}

	if r.opts.DryRun {
		result.Success = true
		result.DryRun = true
		result.Message = dryRunMessage(plan)
		return result
	}

	switch plan.Action {
	case ActionUseNew:
		if plan.IsDeletion() {
			if err := ops.Remove(ctx, plan.Path); err != nil {
				result.Message = applyError(plan.Path, err).Error()
				return result
			}
			result.Message = "accepted deletion"
			break
		}
		if err := ops.ApplyNew(ctx, plan.Path); err != nil {
			result.Message = applyError(plan.Path, err).Error()
			return result
		}
		result.Message = "replaced with incoming version"
	case ActionBackupAndReplace:
		if err := ops.Backup(ctx, plan.Path, plan.BackupPath); err != nil {
			result.Message = applyError(plan.Path, err).Error()
			return result
		}
		result.BackupCreated = plan.BackupPath
		if err := ops.ApplyNew(ctx, plan.Path); err != nil {
			result.Message = applyError(plan.Path, err).Error()
			return result
		}
		result.Message = "backed up and replaced"
	case ActionKeepExisting:
		result.Message = "kept local version"
	case ActionSkip:
		result.Message = "skipped"
	case ActionMerge, ActionManualMerge:
		result.Message = "left for manual merge"
	default:
		result.Message = fmt.Sprintf("unknown action %q", plan.Action)
		return result
	}

	result.Success = true
	r.log.Debug("plan applied", "path", plan.Path, "action", plan.Action)
	return result
}

func dryRunMessage(plan *Plan) string {
	switch plan.Action {
	case ActionUseNew:
		return "would replace with incoming version"
	case ActionBackupAndReplace:
		return fmt.Sprintf("would back up to %s and replace", plan.BackupPath)
	case ActionKeepExisting:
		return "would keep local version"
	case ActionSkip:
		return "would skip"
	default:
		return fmt.Sprintf("would leave for manual merge (%s)", plan.Action)
	}
}

func applyError(path string, err error) error {
	return manifest.NewIOError(path, err)
}
