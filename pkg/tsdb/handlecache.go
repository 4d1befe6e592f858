package tsdb

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// handleMode is the subset of AccessType relevant to an open *os.File: a
// shard handle is either open for reading or for appending, never both.
type handleMode uint8

const (
	modeRead handleMode = iota
	modeAppend
)

// cachedHandle pairs an open file with, for append-mode handles, a
// buffered writer in front of it: Append is the hot path, and batching
// writes behind a bufio.Writer is what makes flush() (as opposed to an
// fsync) meaningful.
type cachedHandle struct {
	file   *os.File
	mode   handleMode
	writer *bufio.Writer // non-nil iff mode == modeAppend
}

// shardHandleCache tracks at most one open *os.File per shard path,
// reopening on an access-mode mismatch. There is no eviction beyond Close
// and shard replacement; the working set is bounded by the number of
// distinct shard dates a session touches.
type shardHandleCache struct {
	handles map[string]*cachedHandle
}

func newShardHandleCache() *shardHandleCache {
	return &shardHandleCache{handles: make(map[string]*cachedHandle)}
}

// get returns the cached handle for path in the requested mode, creating
// the shard (and its parent directories) first when create is true and the
// file does not yet exist.
func (c *shardHandleCache) get(path string, mode handleMode, create bool) (*cachedHandle, error) {
	if cached, ok := c.handles[path]; ok {
		if cached.mode == mode {
			return cached, nil
		}

		if err := c.closeHandle(cached); err != nil {
			return nil, fmt.Errorf("error closing %q before reopening: %w", path, err)
		}

		delete(c.handles, path)
	} else if create {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("error creating directories for %q: %w", path, err)
			}

			f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL, 0o644)
			if err != nil {
				return nil, fmt.Errorf("error creating shard %q: %w", path, err)
			}

			f.Close()
		}
	}

	cached, err := openHandle(path, mode)
	if err != nil {
		return nil, err
	}

	c.handles[path] = cached

	return cached, nil
}

func openHandle(path string, mode handleMode) (*cachedHandle, error) {
	var (
		f   *os.File
		err error
	)

	switch mode {
	case modeAppend:
		f, err = os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	default:
		f, err = os.Open(path)
	}

	if err != nil {
		return nil, fmt.Errorf("error opening shard %q: %w", path, err)
	}

	ch := &cachedHandle{file: f, mode: mode}
	if mode == modeAppend {
		ch.writer = bufio.NewWriter(f)
	}

	return ch, nil
}

func (c *shardHandleCache) closeHandle(cached *cachedHandle) error {
	if cached.writer != nil {
		if err := cached.writer.Flush(); err != nil {
			cached.file.Close()

			return fmt.Errorf("error flushing before close: %w", err)
		}
	}

	return cached.file.Close()
}

// replace closes the cached handle for path and the replacement file,
// renames replacement over path, and reopens path in the same mode as the
// handle that was cached before the call, re-caching it. Both inputs must
// be open files backed by paths in the same directory so the rename is
// atomic.
func (c *shardHandleCache) replace(path string, replacement *os.File) error {
	cached, ok := c.handles[path]
	if !ok {
		return fmt.Errorf("%w: no cached handle for %q to replace", ErrUsage, path)
	}

	mode := cached.mode
	replacementPath := replacement.Name()

	if err := c.closeHandle(cached); err != nil {
		return fmt.Errorf("error closing %q before replacement: %w", path, err)
	}

	if err := replacement.Close(); err != nil {
		return fmt.Errorf("error closing replacement for %q: %w", path, err)
	}

	if err := os.Rename(replacementPath, path); err != nil {
		return fmt.Errorf("error renaming %q to %q: %w", replacementPath, path, err)
	}

	reopened, err := openHandle(path, mode)
	if err != nil {
		return err
	}

	c.handles[path] = reopened

	return nil
}

// flush forces every cached append handle's buffered writer to the OS. It
// does not fsync.
func (c *shardHandleCache) flush() error {
	for path, cached := range c.handles {
		if cached.writer == nil {
			continue
		}

		if err := cached.writer.Flush(); err != nil {
			return fmt.Errorf("error flushing %q: %w", path, err)
		}
	}

	return nil
}

// closeAll flushes and closes every cached handle and clears the cache.
func (c *shardHandleCache) closeAll() error {
	var firstErr error

	for path, cached := range c.handles {
		if err := c.closeHandle(cached); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error closing %q: %w", path, err)
		}
	}

	c.handles = make(map[string]*cachedHandle)

	return firstErr
}
