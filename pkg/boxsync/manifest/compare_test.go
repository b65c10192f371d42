package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompare_Identical(t *testing.T) {
	local := testManifest()
	remote := testManifest()

	cmp := Compare(local, remote)
	assert.True(t, cmp.Identical)
	assert.Empty(t, cmp.Differences)
	assert.Equal(t, SeverityNone, cmp.Severity)
}

func TestCompare_VersionChangeIsCritical(t *testing.T) {
	local := testManifest()
	remote := testManifest()
	remote.Version = "2.0.0"

	cmp := Compare(local, remote)
	require.Len(t, cmp.Differences, 1)
	assert.Equal(t, "version", cmp.Differences[0].Field)
	assert.Equal(t, SeverityCritical, cmp.Differences[0].Impact)
	assert.Equal(t, SeverityCritical, cmp.Severity)
}

func TestCompare_SeverityIsMaxOfFields(t *testing.T) {
	local := testManifest()
	remote := testManifest()
	remote.Description = "updated"
	remote.Name = "renamed-box"

	cmp := Compare(local, remote)
	assert.Len(t, cmp.Differences, 2)
	assert.Equal(t, SeverityHigh, cmp.Severity)
}

func TestCompare_ListFieldsAreOrderIndependent(t *testing.T) {
	local := testManifest()
	local.Tags = []string{"react", "frontend"}
	remote := testManifest()
	remote.Tags = []string{"frontend", "react"}

	cmp := Compare(local, remote)
	assert.True(t, cmp.Identical)
}

func TestCompare_ListContentChangeDetected(t *testing.T) {
	local := testManifest()
	remote := testManifest()
	remote.Exclude = []string{"node_modules", "*.log", "dist"}

	cmp := Compare(local, remote)
	require.Len(t, cmp.Differences, 1)
	assert.Equal(t, "exclude", cmp.Differences[0].Field)
	assert.Equal(t, SeverityHigh, cmp.Severity)
}

func TestCompare_NilLocalForcesLowSeverity(t *testing.T) {
	remote := testManifest()

	cmp := Compare(nil, remote)
	assert.False(t, cmp.Identical)
	assert.Equal(t, SeverityLow, cmp.Severity)

	for _, d := range cmp.Differences {
		assert.Equal(t, DiffAdded, d.Kind)
		assert.Nil(t, d.Local)
	}
	fields := make([]string, 0, len(cmp.Differences))
	for _, d := range cmp.Differences {
		fields = append(fields, d.Field)
	}
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "version")
	assert.Contains(t, fields, "tags")
}

func TestMaxSeverity(t *testing.T) {
	assert.Equal(t, SeverityCritical, MaxSeverity(SeverityLow, SeverityCritical))
	assert.Equal(t, SeverityHigh, MaxSeverity(SeverityHigh, SeverityMedium))
	assert.Equal(t, SeverityNone, MaxSeverity(SeverityNone, SeverityNone))
}
