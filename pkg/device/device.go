// Package device binds a directory driver configuration to a name under a
// database root, and guards it against same-process concurrent access with
// a per-device read-write lock.
package device

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/taransay/tsdb/pkg/lock"
	"github.com/taransay/tsdb/pkg/lock/local"
	"github.com/taransay/tsdb/pkg/tsdb"
)

// Device is a named, directory-backed time series. It is safe to share a
// single Device across goroutines within one process: Reader/Appender/
// Writer serialise access through their RWLocker, keyed by device name,
// converting what would otherwise be undefined concurrent-driver
// behaviour into a blocking wait.
//
// Cross-process concurrent writers remain unsupported: the lock is
// in-memory only and gives no protection once a second process opens the
// same device directory.
type Device[V any] struct {
	name string
	root string
	opts []tsdb.Option

	codec  tsdb.Codec[V]
	locker lock.RWLocker
}

// DeviceOption configures a Device at construction time.
type DeviceOption func(*deviceConfig)

type deviceConfig struct {
	locker lock.RWLocker
	opts   []tsdb.Option
}

// WithLocker overrides the default in-process local.RWLocker, e.g. in
// tests that want to observe lock contention directly.
func WithLocker(l lock.RWLocker) DeviceOption {
	return func(c *deviceConfig) { c.locker = l }
}

// WithDriverOptions passes additional tsdb.Option values (block size,
// encoding) through to every driver the device opens.
func WithDriverOptions(opts ...tsdb.Option) DeviceOption {
	return func(c *deviceConfig) { c.opts = append(c.opts, opts...) }
}

// New creates a Device rooted at filepath.Join(databaseRoot, name).
func New[V any](databaseRoot, name string, codec tsdb.Codec[V], opts ...DeviceOption) *Device[V] {
	cfg := deviceConfig{locker: local.New()}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Device[V]{
		name:   name,
		root:   filepath.Join(databaseRoot, name),
		opts:   cfg.opts,
		codec:  codec,
		locker: cfg.locker,
	}
}

// Name returns the device's name.
func (d *Device[V]) Name() string { return d.name }

// Root returns the device's shard directory.
func (d *Device[V]) Root() string { return d.root }

func (d *Device[V]) open(ctx context.Context, access tsdb.AccessType) *tsdb.Driver[V] {
	drv := tsdb.New(d.root, access, d.codec, d.opts...)
	drv.Open(ctx)

	return drv
}

// Reader acquires a shared read lock, opens a driver for reading, and
// guarantees the driver is closed and the lock released on every exit
// path, including a panic propagating out of fn.
func (d *Device[V]) Reader(ctx context.Context, fn func(ctx context.Context, drv *tsdb.Driver[V]) error) error {
	if err := d.locker.RLock(ctx, d.name, 0); err != nil {
		return fmt.Errorf("error acquiring read lock for device %q: %w", d.name, err)
	}
	defer d.locker.RUnlock(ctx, d.name)

	drv := d.open(ctx, tsdb.Read)
	defer drv.Close(ctx)

	return fn(ctx, drv)
}

// Appender acquires the exclusive lock, opens a driver for appending, and
// guarantees close/unlock on every exit path.
func (d *Device[V]) Appender(ctx context.Context, fn func(ctx context.Context, drv *tsdb.Driver[V]) error) error {
	return d.withWriteLock(ctx, tsdb.Append, fn)
}

// Writer acquires the exclusive lock, opens a driver for inserting and
// sorting, and guarantees close/unlock on every exit path.
func (d *Device[V]) Writer(ctx context.Context, fn func(ctx context.Context, drv *tsdb.Driver[V]) error) error {
	return d.withWriteLock(ctx, tsdb.Write, fn)
}

func (d *Device[V]) withWriteLock(
	ctx context.Context,
	access tsdb.AccessType,
	fn func(ctx context.Context, drv *tsdb.Driver[V]) error,
) error {
	if err := d.locker.Lock(ctx, d.name, 0); err != nil {
		return fmt.Errorf("error acquiring write lock for device %q: %w", d.name, err)
	}
	defer d.locker.Unlock(ctx, d.name)

	drv := d.open(ctx, access)
	defer drv.Close(ctx)

	return fn(ctx, drv)
}

// Sort is a convenience that opens a writer and invokes its Sort.
func (d *Device[V]) Sort(ctx context.Context) error {
	return d.Writer(ctx, func(ctx context.Context, drv *tsdb.Driver[V]) error {
		return drv.Sort(ctx)
	})
}
