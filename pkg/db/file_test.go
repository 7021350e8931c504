package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileBackend_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	backend, err := NewFileBackend(dir)
	require.NoError(t, err)

	_, err = backend.Get(ctx, KeyDocument)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, backend.Put(ctx, KeyDocument, []byte(`{"students":[]}`)))
	require.NoError(t, backend.Put(ctx, KeyDocument, []byte(`{"students":[{"name":"Jo"}]}`)))

	data, err := backend.Get(ctx, KeyDocument)
	require.NoError(t, err)
	assert.JSONEq(t, `{"students":[{"name":"Jo"}]}`, string(data))

	info, err := os.Stat(filepath.Join(dir, "document.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// No temp files left behind
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, backend.Delete(ctx, KeyDocument))
	require.NoError(t, backend.Delete(ctx, KeyDocument))
	_, err = backend.Get(ctx, KeyDocument)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileBackend_RejectsPathKeys(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	err = backend.Put(context.Background(), "../escape", []byte("x"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid storage key")
}

func TestMemoryBackend_CopiesValues(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()

	value := []byte("abc")
	require.NoError(t, backend.Put(ctx, KeyOutbox, value))
	value[0] = 'x'

	stored, err := backend.Get(ctx, KeyOutbox)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(stored))
}
