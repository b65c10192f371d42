package fileops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (source, target string, ops *Ops) {
	t.Helper()
	source = t.TempDir()
	target = t.TempDir()
	return source, target, New(source, target, WithTrash(false))
}

func write(t *testing.T, root, relPath, content string, mode os.FileMode) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func TestApplyNew_CopiesIntoTarget(t *testing.T) {
	source, target, ops := setup(t)
	write(t, source, "src/app.go", "package app\n", 0o644)

	require.NoError(t, ops.ApplyNew(context.Background(), "src/app.go"))

	got, err := os.ReadFile(filepath.Join(target, "src", "app.go"))
	require.NoError(t, err)
	assert.Equal(t, "package app\n", string(got))
}

func TestApplyNew_OverwritesExisting(t *testing.T) {
	source, target, ops := setup(t)
	write(t, source, "a.txt", "new\n", 0o644)
	write(t, target, "a.txt", "old\n", 0o644)

	require.NoError(t, ops.ApplyNew(context.Background(), "a.txt"))

	got, err := os.ReadFile(filepath.Join(target, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(got))
}

func TestApplyNew_PreservesMode(t *testing.T) {
	source, target, ops := setup(t)
	write(t, source, "deploy.sh", "#!/bin/sh\n", 0o755)

	require.NoError(t, ops.ApplyNew(context.Background(), "deploy.sh"))

	info, err := os.Stat(filepath.Join(target, "deploy.sh"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestApplyNew_LeavesNoTempFiles(t *testing.T) {
	source, target, ops := setup(t)
	write(t, source, "a.txt", "x\n", 0o644)

	require.NoError(t, ops.ApplyNew(context.Background(), "a.txt"))

	entries, err := os.ReadDir(target)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.txt", entries[0].Name())
}

func TestApplyNew_MissingSource(t *testing.T) {
	_, _, ops := setup(t)

	err := ops.ApplyNew(context.Background(), "absent.txt")
	assert.Error(t, err)
}

func TestBackup_CopiesTargetVersion(t *testing.T) {
	_, target, ops := setup(t)
	write(t, target, "config.json", "{\"local\": true}\n", 0o644)

	backupDir := t.TempDir()
	backupPath := filepath.Join(backupDir, "config.backup.json")
	require.NoError(t, ops.Backup(context.Background(), "config.json", backupPath))

	got, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "{\"local\": true}\n", string(got))

	_, err = os.Stat(filepath.Join(target, "config.json"))
	assert.NoError(t, err)
}

func TestBackup_CreatesParentDirs(t *testing.T) {
	_, target, ops := setup(t)
	write(t, target, "src/a.ts", "x\n", 0o644)

	backupPath := filepath.Join(t.TempDir(), "deep", "nested", "a.backup.ts")
	require.NoError(t, ops.Backup(context.Background(), "src/a.ts", backupPath))

	_, err := os.Stat(backupPath)
	assert.NoError(t, err)
}

func TestRemove_DeletesFile(t *testing.T) {
	_, target, ops := setup(t)
	write(t, target, "gone.txt", "x\n", 0o644)

	require.NoError(t, ops.Remove(context.Background(), "gone.txt"))

	_, err := os.Stat(filepath.Join(target, "gone.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemove_MissingFile(t *testing.T) {
	_, _, ops := setup(t)

	err := ops.Remove(context.Background(), "absent.txt")
	assert.Error(t, err)
}

func TestOps_CancelledContext(t *testing.T) {
	source, _, ops := setup(t)
	write(t, source, "a.txt", "x\n", 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, ops.ApplyNew(ctx, "a.txt"), context.Canceled)
	assert.ErrorIs(t, ops.Backup(ctx, "a.txt", "/tmp/b"), context.Canceled)
	assert.ErrorIs(t, ops.Remove(ctx, "a.txt"), context.Canceled)
}
