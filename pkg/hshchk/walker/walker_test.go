package walker_test

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jamesainslie/hshchk/pkg/hshchk/walker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTree creates files (relative slash paths) with the given content under a temp dir.
func makeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func collect(t *testing.T, ctx context.Context, root string, opts ...walker.Option) []string {
	t.Helper()
	var got []string
	err := walker.Walk(ctx, root, func(path string, _ fs.DirEntry) {
		rel, err := filepath.Rel(root, path)
		require.NoError(t, err)
		got = append(got, filepath.ToSlash(rel))
	}, opts...)
	require.NoError(t, err)
	return got
}

func TestWalkDepthFirstLexical(t *testing.T) {
	t.Parallel()

	root := makeTree(t, map[string]string{
		"b.txt":       "b",
		"a/z.txt":     "z",
		"a/b/c.txt":   "c",
		"a/a.txt":     "a",
		"c/d/e/f.txt": "f",
	})

	got := collect(t, context.Background(), root)
	assert.Equal(t, []string{
		"a/a.txt",
		"a/b/c.txt",
		"a/z.txt",
		"b.txt",
		"c/d/e/f.txt",
	}, got)

	// Same tree, same order.
	assert.Equal(t, got, collect(t, context.Background(), root))
}

func TestWalkSkipsEmptyDirectories(t *testing.T) {
	t.Parallel()

	root := makeTree(t, map[string]string{"file": "data"})
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "nested"), 0o755))

	assert.Equal(t, []string{"file"}, collect(t, context.Background(), root))
}

func TestWalkCanceled(t *testing.T) {
	t.Parallel()

	root := makeTree(t, map[string]string{"a": "1", "b": "2", "c": "3"})

	ctx, cancel := context.WithCancel(context.Background())
	var got []string
	err := walker.Walk(ctx, root, func(path string, _ fs.DirEntry) {
		got = append(got, filepath.Base(path))
		cancel()
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}

func TestWalkMissingRoot(t *testing.T) {
	t.Parallel()

	err := walker.Walk(context.Background(), filepath.Join(t.TempDir(), "missing"), func(string, fs.DirEntry) {})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWalkSymlinks(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}

	root := makeTree(t, map[string]string{"dir/file": "data"})
	require.NoError(t, os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "dirlink")))
	require.NoError(t, os.Symlink(filepath.Join(root, "dir", "file"), filepath.Join(root, "filelink")))
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "dangling")))

	var walkErrs []string
	got := collect(t, context.Background(), root, walker.WithErrorHandler(func(path string, _ error) {
		walkErrs = append(walkErrs, filepath.Base(path))
	}))

	assert.Equal(t, []string{"dir/file", "filelink"}, got)
	assert.Equal(t, []string{"dangling"}, walkErrs)
}

func TestWalkUnreadableDirectory(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	root := makeTree(t, map[string]string{"locked/file": "x", "open/file": "y"})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	var walkErrs []string
	got := collect(t, context.Background(), root, walker.WithErrorHandler(func(path string, _ error) {
		walkErrs = append(walkErrs, filepath.Base(path))
	}))

	assert.Equal(t, []string{"open/file"}, got)
	assert.Equal(t, []string{"locked"}, walkErrs)
}

func TestCensus(t *testing.T) {
	t.Parallel()

	root := makeTree(t, map[string]string{
		"a":     "1",
		"b/c":   "22",
		"b/d/e": "333",
	})

	totals, err := walker.Census(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, int64(3), totals.Files)
	assert.Equal(t, int64(6), totals.Bytes)
}

func TestCensusCanceled(t *testing.T) {
	t.Parallel()

	root := makeTree(t, map[string]string{"a": "1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := walker.Census(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
}
