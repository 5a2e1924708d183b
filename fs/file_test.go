package fs_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/prgi"
	"github.com/fwojciec/prgi/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Story: Atomic Output Files
// Exports and scrape output use a temp file so a failed write never leaves
// a half-written file behind.

func TestFile_CommitMovesContentToFinalPath(t *testing.T) {
	t.Parallel()

	// Given a file targeting a path
	path := filepath.Join(t.TempDir(), "results.csv")
	f, err := fs.Create(path)
	require.NoError(t, err)

	// When I write and commit
	_, err = io.WriteString(f, "id,title\n")
	require.NoError(t, err)

	// Then nothing exists at the final path before commit
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, f.Commit())

	// And the content is at the final path afterwards
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,title\n", string(data))
	assert.Equal(t, path, f.Path())
}

func TestFile_AbortLeavesNoFiles(t *testing.T) {
	t.Parallel()

	// Given a written but uncommitted file
	dir := t.TempDir()
	f, err := fs.Create(filepath.Join(dir, "results.json"))
	require.NoError(t, err)
	_, err = io.WriteString(f, "[")
	require.NoError(t, err)

	// When I abort
	require.NoError(t, f.Abort())

	// Then the directory is empty
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFile_CreatesParentDirectories(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "exports", "2026", "results.csv")

	err := fs.WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "ok")
		return err
	})

	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(data))
}

func TestWriteFile_KeepsExistingFileOnFailure(t *testing.T) {
	t.Parallel()

	// Given an existing output file
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	// When a new write fails midway
	boom := errors.New("boom")
	err := fs.WriteFile(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})

	// Then the error is returned and the old content is kept
	require.ErrorIs(t, err, boom)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must be removed")
}

func TestWriteFile_ReplacesExistingFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	err := fs.WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	})

	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestCreate_InvalidDirectory(t *testing.T) {
	t.Parallel()

	parent := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(parent, nil, 0o600))

	_, err := fs.Create(filepath.Join(parent, "results.csv"))

	assert.Equal(t, prgi.EINVALID, prgi.ErrorCode(err))
}
