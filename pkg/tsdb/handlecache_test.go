package tsdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShardHandleCache_getCreatesAndReopens(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "2020", "04", "01.txt")

	cache := newShardHandleCache()
	t.Cleanup(func() { cache.closeAll() })

	cached, err := cache.get(path, modeAppend, true)
	require.NoError(t, err)
	require.NotNil(t, cached.writer)

	_, err = os.Stat(path)
	require.NoError(t, err)

	_, err = cached.writer.WriteString("10:00:00 a\n")
	require.NoError(t, err)
	require.NoError(t, cache.flush())

	// Requesting read mode for the same path must close the append
	// handle (flushing it) and reopen fresh.
	readCached, err := cache.get(path, modeRead, false)
	require.NoError(t, err)
	assert.Nil(t, readCached.writer)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "10:00:00 a\n", string(content))
}

func TestShardHandleCache_getWithoutCreateMissing(t *testing.T) {
	t.Parallel()

	cache := newShardHandleCache()
	t.Cleanup(func() { cache.closeAll() })

	_, err := cache.get(filepath.Join(t.TempDir(), "missing.txt"), modeRead, false)
	assert.Error(t, err)
}

func TestShardHandleCache_replace(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "shard.txt")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o644))

	cache := newShardHandleCache()
	t.Cleanup(func() { cache.closeAll() })

	_, err := cache.get(path, modeRead, false)
	require.NoError(t, err)

	tmp, err := os.CreateTemp(root, "shard.txt.tmp-*")
	require.NoError(t, err)
	_, err = tmp.WriteString("new\n")
	require.NoError(t, err)

	require.NoError(t, cache.replace(path, tmp))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(content))

	cached, ok := cache.handles[path]
	require.True(t, ok)
	assert.Equal(t, modeRead, cached.mode)
}

func TestShardHandleCache_replaceUnknownPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	cache := newShardHandleCache()
	t.Cleanup(func() { cache.closeAll() })

	tmp, err := os.CreateTemp(root, "tmp-*")
	require.NoError(t, err)

	err = cache.replace(filepath.Join(root, "shard.txt"), tmp)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestShardHandleCache_closeAll(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "shard.txt")

	cache := newShardHandleCache()

	_, err := cache.get(path, modeAppend, true)
	require.NoError(t, err)

	require.NoError(t, cache.closeAll())
	assert.Empty(t, cache.handles)
}
