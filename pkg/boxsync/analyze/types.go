// Package analyze converts raw directory comparisons into risk-classified,
// human-meaningful change descriptions: per-file risk factors and impact
// levels plus an overall verdict for the whole change set.
package analyze

import "github.com/jamesainslie/boxsync/pkg/boxsync/compare"

// RiskFactor is one reason a file change carries risk. Factors are
// multi-label: a single change can carry several.
type RiskFactor string

// Risk factors.
const (
	RiskCriticalSystemFile RiskFactor = "critical_system_file"
	RiskConfigurationFile  RiskFactor = "configuration_file"
	RiskExecutableFile     RiskFactor = "executable_file"
	RiskLargeSizeChange    RiskFactor = "large_size_change"
	RiskMajorContentChange RiskFactor = "major_content_change"
	RiskExtensionChange    RiskFactor = "extension_change"
	RiskBinaryFile         RiskFactor = "binary_file"
	RiskFileDeletion       RiskFactor = "file_deletion"
)

// ImpactLevel ranks how disruptive a single file change is.
type ImpactLevel string

// Impact levels in ascending order.
const (
	ImpactLow      ImpactLevel = "low"
	ImpactMedium   ImpactLevel = "medium"
	ImpactHigh     ImpactLevel = "high"
	ImpactCritical ImpactLevel = "critical"
)

// Impact describes the assessed impact of one file change.
type Impact struct {
	// Level is the impact classification.
	Level ImpactLevel `json:"level"`

	// Description explains the classification in plain language.
	Description string `json:"description"`

	// AffectedFiles lists the files this change touches.
	AffectedFiles []string `json:"affected_files"`

	// Recommendations suggests follow-up actions.
	Recommendations []string `json:"recommendations,omitempty"`
}

// SizeAnalysis captures the size delta of a change.
type SizeAnalysis struct {
	Before        int64   `json:"before"`
	After         int64   `json:"after"`
	Change        int64   `json:"change"`
	ChangePercent float64 `json:"change_percent"`
}

// ContentAnalysis captures the content delta of a change.
type ContentAnalysis struct {
	LinesAdded         int     `json:"lines_added"`
	LinesDeleted       int     `json:"lines_deleted"`
	Similarity         float64 `json:"similarity"`
	HasBreakingChanges bool    `json:"has_breaking_changes"`
}

// FileChangeAnalysis is the full analysis of one changed file.
type FileChangeAnalysis struct {
	// Path is the slash-separated relative path.
	Path string `json:"path"`

	// ChangeType is the comparison status (added, deleted, modified).
	ChangeType compare.FileStatus `json:"change_type"`

	// Impact is the assessed impact.
	Impact Impact `json:"impact"`

	// RiskFactors lists every factor that applies.
	RiskFactors []RiskFactor `json:"risk_factors"`

	// Size is the size delta.
	Size SizeAnalysis `json:"size"`

	// Content is the content delta.
	Content ContentAnalysis `json:"content"`
}

// RiskLevel is the overall verdict for a change set.
type RiskLevel string

// Overall risk levels.
const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Report is the analyzer's output for one change set.
type Report struct {
	// Files holds one analysis per non-unchanged file.
	Files []FileChangeAnalysis `json:"files"`

	// OverallRisk is the change set verdict.
	OverallRisk RiskLevel `json:"overall_risk"`

	// LowConfidence marks a medium verdict driven purely by the number
	// of added files rather than by any individual risk.
	LowConfidence bool `json:"low_confidence,omitempty"`

	// CanAutoApply is true only when the overall risk is low.
	CanAutoApply bool `json:"can_auto_apply"`
}
