package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_Basic(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "README.md", "hello\n")
	writeFile(t, root, "src/main.go", "package main\n")

	snap, err := Scan(context.Background(), root, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"README.md", "src/main.go"}, snap.Paths())

	rec := snap.File("src/main.go")
	require.NotNil(t, rec)
	assert.Equal(t, ".go", rec.Ext)
	assert.True(t, rec.HasContent())
	assert.Equal(t, "package main\n", string(rec.Content))
}

func TestScan_SkipsHiddenStateDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "keep.txt", "keep\n")
	writeFile(t, root, ".boxsync/manifest.json", "{}\n")

	snap, err := Scan(context.Background(), root, Options{HiddenStateDir: ".boxsync"})
	require.NoError(t, err)

	assert.Equal(t, []string{"keep.txt"}, snap.Paths())
}

func TestScan_ExcludePatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "app.go", "package app\n")
	writeFile(t, root, "node_modules/lib/index.js", "x\n")
	writeFile(t, root, "debug.log", "noise\n")
	writeFile(t, root, "nested/debug.log", "noise\n")

	snap, err := Scan(context.Background(), root, Options{Exclude: []string{"node_modules", "**.log"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"app.go"}, snap.Paths())
}

func TestScan_ContentCap(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "small.txt", "small\n")
	writeFile(t, root, "large.txt", strings.Repeat("x", 100))

	snap, err := Scan(context.Background(), root, Options{MaxContentSize: 50})
	require.NoError(t, err)

	assert.True(t, snap.File("small.txt").HasContent())
	large := snap.File("large.txt")
	require.NotNil(t, large)
	assert.False(t, large.HasContent())
	assert.Equal(t, int64(100), large.Size)
}

func TestScan_SkipContent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "content\n")

	snap, err := Scan(context.Background(), root, Options{SkipContent: true})
	require.NoError(t, err)

	rec := snap.File("a.txt")
	require.NotNil(t, rec)
	assert.False(t, rec.HasContent())
	assert.Equal(t, int64(8), rec.Size)
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}

func TestScan_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.txt", "x\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Scan(ctx, root, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileExcludes_BareNameMatchesAnywhere(t *testing.T) {
	m, err := CompileExcludes([]string{"node_modules"})
	require.NoError(t, err)

	assert.True(t, m.Match("node_modules"))
	assert.True(t, m.Match("packages/app/node_modules"))
	assert.True(t, m.Match("node_modules/lib/index.js"))
	assert.False(t, m.Match("src/index.js"))
	assert.False(t, m.Match("node_modules_backup"))
}

func TestCompileExcludes_GlobPatterns(t *testing.T) {
	m, err := CompileExcludes([]string{"**.log", "dist/*"})
	require.NoError(t, err)

	assert.True(t, m.Match("debug.log"))
	assert.True(t, m.Match("deep/nested/debug.log"))
	assert.True(t, m.Match("dist/bundle.js"))
	assert.False(t, m.Match("src/main.go"))
}

func TestCompileExcludes_InvalidPattern(t *testing.T) {
	_, err := CompileExcludes([]string{"[unclosed"})
	assert.Error(t, err)
}

func TestCompileExcludes_NilMatcherMatchesNothing(t *testing.T) {
	var m *Matcher
	assert.False(t, m.Match("anything"))
}
