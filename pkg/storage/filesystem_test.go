package storage

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveOpenDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("2024/req-1.pdf", []byte("%PDF-1.3"))
	require.NoError(t, err)
	assert.Equal(t, "2024/req-1.pdf", name)

	ok, err := store.Exists(name)
	require.NoError(t, err)
	assert.True(t, ok)

	f, err := store.Open(name)
	require.NoError(t, err)
	body, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "%PDF-1.3", string(body))

	require.NoError(t, store.Delete(name))
	ok, err = store.Exists(name)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, store.Delete(name))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"", "../secret", "/etc/passwd", "a/../../b"} {
		_, err := store.Save(name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, name)
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("old.pdf", []byte("old"))
	require.NoError(t, err)
	_, err = store.Save("new.pdf", []byte("new"))
	require.NoError(t, err)
	past := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "old.pdf"), past, past))

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"old.pdf"}, deleted)
}
