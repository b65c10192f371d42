package resolve

import (
	"time"

	"github.com/google/uuid"

	"github.com/jamesainslie/boxsync/pkg/boxsync/analyze"
	"github.com/jamesainslie/boxsync/pkg/boxsync/compare"
)

// PromptFunc asks a human to decide one plan. It returns the chosen
// action, or an error when the prompt is aborted.
type PromptFunc func(plan *Plan) (Action, error)

// BuildSession plans every conflict in the report and comparison and
// partitions the plans into auto-resolved and manual-review sets.
func (r *Resolver) BuildSession(report *analyze.Report, comparison *compare.DirectoryComparison) *Session {
	session := &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}

	for i := range report.Files {
		plan := r.PlanFile(&report.Files[i])
		r.addPlan(session, plan)
	}
	if comparison != nil && comparison.Manifest != nil {
		for i := range comparison.Manifest.Conflicts {
			plan := r.PlanManifestConflict(&comparison.Manifest.Conflicts[i])
			r.addPlan(session, plan)
		}
	}

	session.TotalConflicts = len(session.AutoResolved) + len(session.RequiresManualReview)
	session.ResolvedConflicts = len(session.AutoResolved)

	r.log.Info("resolution session built",
		"session", session.ID,
		"auto", len(session.AutoResolved),
		"manual", len(session.RequiresManualReview))

	return session
}

func (r *Resolver) addPlan(session *Session, plan *Plan) {
	if r.CanAutoResolve(plan) {
		plan.Decided = true
		session.AutoResolved = append(session.AutoResolved, plan)
	} else {
		session.RequiresManualReview = append(session.RequiresManualReview, plan)
	}
}

// ResolveInteractively walks the manual-review plans and asks onPrompt
// for each. A prompt error or abort downgrades that plan to skip rather
// than failing the session; every prompted plan counts as resolved.
func (r *Resolver) ResolveInteractively(session *Session, onPrompt PromptFunc) {
	for _, plan := range session.RequiresManualReview {
		action, err := onPrompt(plan)
		if err != nil {
			r.log.Warn("prompt aborted, skipping", "path", plan.Path, "error", err)
			plan.Action = ActionSkip
			plan.Reason = "skipped: prompt aborted"
		} else {
			plan.Action = action
			plan.Reason = "chosen interactively"
			if action == ActionBackupAndReplace && plan.BackupPath == "" {
				plan.BackupPath = r.GenerateBackupPath(plan.Path, r.opts.BackupDir)
			}
		}
		plan.Decided = true
		session.ResolvedConflicts++
	}
}
