package manifest

import "sort"

// Severity ranks the impact of a manifest difference.
type Severity string

// Severity levels in ascending order.
const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for max comparisons.
var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// MaxSeverity returns the higher of two severities.
func MaxSeverity(a, b Severity) Severity {
	if severityRank[b] > severityRank[a] {
		return b
	}
	return a
}

// DiffKind classifies a single field difference.
type DiffKind string

// Field difference kinds.
const (
	DiffAdded   DiffKind = "added"
	DiffChanged DiffKind = "changed"
)

// FieldDiff describes one differing manifest field.
type FieldDiff struct {
	// Field is the JSON name of the differing field.
	Field string `json:"field"`

	// Kind is added (no local value) or changed.
	Kind DiffKind `json:"kind"`

	// Local is the local value, nil for added fields.
	Local any `json:"local,omitempty"`

	// Remote is the remote value.
	Remote any `json:"remote"`

	// Impact is the per-field severity weight.
	Impact Severity `json:"impact"`
}

// Comparison is the result of a field-by-field manifest diff.
type Comparison struct {
	// Identical is true when no field differs.
	Identical bool `json:"identical"`

	// Differences lists the differing fields.
	Differences []FieldDiff `json:"differences"`

	// Severity is the maximum individual field impact, or none. For a
	// fresh manifest (nil local) it is forced to low regardless of the
	// field weights: a new manifest is inherently low-risk to accept.
	Severity Severity `json:"severity"`
}

// fieldImpact is the per-field weight table. Version changes drive sync
// decisions and are critical; name and exclude changes alter identity and
// comparison scope; everything else is informational.
var fieldImpact = map[string]Severity{
	"name":           SeverityHigh,
	"description":    SeverityLow,
	"author":         SeverityLow,
	"version":        SeverityCritical,
	"default_target": SeverityMedium,
	"tags":           SeverityLow,
	"exclude":        SeverityHigh,
	"post_install":   SeverityLow,
}

// Compare diffs local against remote field by field. A nil local manifest
// reports every remote field as added with overall severity forced to low.
// Scalar fields compare by equality; tags, exclude, and post_install compare
// as order-independent sets.
func Compare(local, remote *Manifest) *Comparison {
	if local == nil {
		return compareFresh(remote)
	}

	var diffs []FieldDiff

	scalars := []struct {
		field         string
		local, remote string
	}{
		{"name", local.Name, remote.Name},
		{"description", local.Description, remote.Description},
		{"author", local.Author, remote.Author},
		{"version", local.Version, remote.Version},
		{"default_target", local.DefaultTarget, remote.DefaultTarget},
	}
	for _, f := range scalars {
		if f.local != f.remote {
			diffs = append(diffs, FieldDiff{
				Field:  f.field,
				Kind:   DiffChanged,
				Local:  f.local,
				Remote: f.remote,
				Impact: fieldImpact[f.field],
			})
		}
	}

	sets := []struct {
		field         string
		local, remote []string
	}{
		{"tags", local.Tags, remote.Tags},
		{"exclude", local.Exclude, remote.Exclude},
		{"post_install", local.PostInstall, remote.PostInstall},
	}
	for _, f := range sets {
		if !equalSets(f.local, f.remote) {
			diffs = append(diffs, FieldDiff{
				Field:  f.field,
				Kind:   DiffChanged,
				Local:  f.local,
				Remote: f.remote,
				Impact: fieldImpact[f.field],
			})
		}
	}

	severity := SeverityNone
	for _, d := range diffs {
		severity = MaxSeverity(severity, d.Impact)
	}

	return &Comparison{
		Identical:   len(diffs) == 0,
		Differences: diffs,
		Severity:    severity,
	}
}

// compareFresh builds the all-added comparison for a missing local manifest.
func compareFresh(remote *Manifest) *Comparison {
	added := func(field string, value any) FieldDiff {
		return FieldDiff{Field: field, Kind: DiffAdded, Remote: value, Impact: fieldImpact[field]}
	}

	diffs := []FieldDiff{
		added("name", remote.Name),
		added("description", remote.Description),
		added("author", remote.Author),
		added("version", remote.Version),
	}
	if remote.DefaultTarget != "" {
		diffs = append(diffs, added("default_target", remote.DefaultTarget))
	}
	if len(remote.Tags) > 0 {
		diffs = append(diffs, added("tags", remote.Tags))
	}
	if len(remote.Exclude) > 0 {
		diffs = append(diffs, added("exclude", remote.Exclude))
	}
	if len(remote.PostInstall) > 0 {
		diffs = append(diffs, added("post_install", remote.PostInstall))
	}

	return &Comparison{
		Identical:   false,
		Differences: diffs,
		Severity:    SeverityLow,
	}
}

// equalSets compares two string slices as order-independent sets.
func equalSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as := append([]string(nil), a...)
	bs := append([]string(nil), b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}
