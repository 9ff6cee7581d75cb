package fsutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

func TestWithin(t *testing.T) {
	root := filepath.FromSlash("/site")
	tests := []struct {
		path string
		want bool
	}{
		{"/site", true},
		{"/site/a/b.png", true},
		{"/site/../site/x", true},
		{"/other/x", false},
		{"/site/../x", false},
		{"/site..x/y", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Within(root, filepath.FromSlash(tt.path)))
		})
	}
}

func TestWithin_SiblingNamedWithDots(t *testing.T) {
	assert.True(t, Within(filepath.FromSlash("/site"), filepath.FromSlash("/site/..hidden/x")))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "out.html")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files left behind")
}

func TestCopyFileIfMissing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "pic.png")
	dst := filepath.Join(dir, "out", "img", "pic.png")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("png"), 0o644))

	copied, err := CopyFileIfMissing(src, dst)
	require.NoError(t, err)
	assert.True(t, copied)

	require.NoError(t, os.WriteFile(src, []byte("changed"), 0o644))
	copied, err = CopyFileIfMissing(src, dst)
	require.NoError(t, err)
	assert.False(t, copied, "an existing destination is kept")

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestCopyFileIfMissing_MissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := CopyFileIfMissing(filepath.Join(dir, "nope.png"), filepath.Join(dir, "out.png"))
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestCopyFileIfMissing_Concurrent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("shared"), 0o644))
	dst := filepath.Join(dir, "out", "a.txt")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := CopyFileIfMissing(src, dst)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(data))
}
