// ABOUTME: Tests for the persisted session backends
// ABOUTME: Covers file permissions, path-safe keys and injected memory failures

package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "nested")
	fs := NewFileStorage(dir)

	got, err := fs.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, fs.Set(ctx, KeyToken, []byte("abc")))
	got, err = fs.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	info, err := os.Stat(filepath.Join(dir, KeyToken))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, fs.Delete(ctx, KeyToken))
	require.NoError(t, fs.Delete(ctx, KeyToken))
	got, err = fs.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFileStorage_RejectsPathKeys(t *testing.T) {
	fs := NewFileStorage(t.TempDir())
	assert.Error(t, fs.Set(context.Background(), "../escape", []byte("x")))
}

func TestMemoryStorage_FailDeleteKeepsValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStorage()
	require.NoError(t, m.Set(ctx, KeyUser, []byte("{}")))

	m.FailDelete = map[string]error{KeyUser: errors.New("disk full")}
	assert.Error(t, m.Delete(ctx, KeyUser))
	assert.Equal(t, 1, m.Len())

	assert.NoError(t, m.Delete(ctx, KeyToken))
}
