package tsdb

import (
	"container/heap"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Measurement is a single timestamped tuple as returned by a Cursor: an
// absolute time and the domain values a device's Codec parsed from the
// cell tokens on its shard line.
type Measurement[V any] struct {
	Time   time.Time
	Values V
}

// Option configures a Driver at construction time.
type Option func(*driverConfig)

type driverConfig struct {
	blockSize int
	enc       encoding.Encoding
}

// WithBlockSize overrides the block reader's read size. The default is
// DefaultBlockSize.
func WithBlockSize(n int) Option {
	return func(c *driverConfig) {
		if n > 0 {
			c.blockSize = n
		}
	}
}

// WithLatin1Encoding switches the shard encoding from the default UTF-8 to
// single-byte Latin-1 (ISO-8859-1), which the float device specialisation
// uses to accelerate I/O for numeric-only workloads: every cell is ASCII
// digits, a sign, and a decimal point, so the byte-for-byte Latin-1 mapping
// never has to reason about multi-byte runes.
func WithLatin1Encoding() Option {
	return func(c *driverConfig) {
		c.enc = charmap.ISO8859_1
	}
}

// Driver is the directory-based database driver: it owns one device's
// directory of per-day shard files and enforces the access type it was
// opened with. Driver is not safe for concurrent use by multiple
// goroutines; see Device for the in-process guard built on top of it.
type Driver[V any] struct {
	root   string
	access AccessType
	codec  Codec[V]
	cache  *shardHandleCache

	blockSize int
	enc       encoding.Encoding

	open bool
}

// New constructs a Driver rooted at root with the given access type and
// value codec. The driver is not usable until Open is called.
func New[V any](root string, access AccessType, codec Codec[V], opts ...Option) *Driver[V] {
	cfg := driverConfig{blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Driver[V]{
		root:      root,
		access:    access,
		codec:     codec,
		cache:     newShardHandleCache(),
		blockSize: cfg.blockSize,
		enc:       cfg.enc,
	}
}

// Open marks the driver live. It performs no I/O.
func (d *Driver[V]) Open(context.Context) {
	d.open = true
}

// IsOpen reports whether the driver is currently open, for cursors to
// check before resuming a walk.
func (d *Driver[V]) IsOpen() bool {
	return d.open
}

// Close closes every cached shard handle and marks the driver no longer
// open; cursors obtained from it become invalid.
func (d *Driver[V]) Close(ctx context.Context) error {
	_, end := recordOp(ctx, "Close")

	err := d.cache.closeAll()
	d.open = false

	end(err)

	return err
}

// Flush forces every cached append handle's buffered writes to the OS. It
// does not fsync.
func (d *Driver[V]) Flush(ctx context.Context) error {
	_, end := recordOp(ctx, "Flush")
	err := d.cache.flush()
	end(err)

	return err
}

func (d *Driver[V]) requireAccess(op string, want AccessType) error {
	if !d.open {
		return fmt.Errorf("%w: operation %q requires it", ErrNotOpen, op)
	}

	if !d.access.Has(want) {
		return accessError(op, want)
	}

	return nil
}

func (d *Driver[V]) encodeString(s string) (string, error) {
	if d.enc == nil {
		return s, nil
	}

	out, err := d.enc.NewEncoder().String(s)
	if err != nil {
		return "", fmt.Errorf("error encoding line: %w", err)
	}

	return out, nil
}

// Append writes (t, v) to the end of t's shard. It does not check order
// against the shard's current tail: a shard that receives an
// out-of-order append becomes unsorted until Sort is called. This is by
// design — callers that know their timestamps are monotonic pay nothing.
func (d *Driver[V]) Append(ctx context.Context, t time.Time, v V) (err error) {
	path := shardPath(d.root, t)

	_, end := recordOp(ctx, "Append", attribute.String("shard", path))
	defer func() { end(err) }()

	if err = d.requireAccess("Append", Append); err != nil {
		return err
	}

	cached, err := d.cache.get(path, modeAppend, true)
	if err != nil {
		return err
	}

	line := formatLine(timeOfDay(t), d.codec.Format(v))

	encoded, err := d.encodeString(line)
	if err != nil {
		return err
	}

	if _, err = cached.writer.WriteString(encoded); err != nil {
		return fmt.Errorf("error appending to %q: %w", path, err)
	}

	return nil
}

// Insert writes (t, v) into t's shard at the position that keeps the shard
// sorted, assuming it already was. It rewrites the shard via a sibling
// temp file and an atomic rename, so a crash mid-insert leaves the
// original shard untouched.
//
// Any comment or blank line encountered is dropped from the rewritten
// shard: both are skipped by every reader, so carrying them through an
// insert-triggered rewrite would only preserve dead weight.
func (d *Driver[V]) Insert(ctx context.Context, t time.Time, v V) (err error) {
	path := shardPath(d.root, t)

	_, end := recordOp(ctx, "Insert", attribute.String("shard", path))
	defer func() { end(err) }()

	if err = d.requireAccess("Insert", Write); err != nil {
		return err
	}

	cached, err := d.cache.get(path, modeRead, true)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("error creating temp file for %q: %w", path, err)
	}

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	pivot := timeOfDay(t)
	insertLine := formatLine(pivot, d.codec.Format(v))

	scanner := newLineScanner(newBlockReader(cached.file, false, d.blockSize, d.enc), false)

	placed := false

	for {
		line, lineNo, ok, scanErr := scanner.next()
		if scanErr != nil {
			err = scanErr

			return err
		}

		if !ok {
			break
		}

		if !placed {
			lineTime, _, parseErr := parseLineTime(line)
			if parseErr != nil {
				err = &ParseError{Shard: path, LineNo: lineNo, Line: line, Err: parseErr}

				return err
			}

			if lineTime > pivot {
				if err = d.writeRaw(tmp, insertLine); err != nil {
					return err
				}

				placed = true
			}
		}

		if err = d.writeRaw(tmp, line+"\n"); err != nil {
			return err
		}
	}

	if !placed {
		if err = d.writeRaw(tmp, insertLine); err != nil {
			return err
		}
	}

	if err = d.cache.replace(path, tmp); err != nil {
		return err
	}

	return nil
}

// writeRaw encodes s per the driver's configured encoding and writes it
// verbatim to w.
func (d *Driver[V]) writeRaw(w io.StringWriter, s string) error {
	encoded, err := d.encodeString(s)
	if err != nil {
		return err
	}

	if _, err := w.WriteString(encoded); err != nil {
		return fmt.Errorf("error writing: %w", err)
	}

	return nil
}

// Sort rewrites every shard under the driver's root into non-decreasing
// time-of-day order. Each shard is split into runs of already-sorted
// lines (a line that is not strictly later than the last line kept in the
// current run is deferred to a later run), then the runs are merged with a
// container/heap k-way merge. A shard whose times are strictly increasing
// produces a single run and the merge degenerates into a copy.
func (d *Driver[V]) Sort(ctx context.Context) (err error) {
	ctx, end := recordOp(ctx, "Sort")
	defer func() { end(err) }()

	if err = d.requireAccess("Sort", Write); err != nil {
		return err
	}

	paths, err := shardPaths(d.root)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if err = d.sortShard(ctx, path); err != nil {
			return fmt.Errorf("error sorting %q: %w", path, err)
		}
	}

	return nil
}

func (d *Driver[V]) sortShard(ctx context.Context, path string) error {
	cached, err := d.cache.get(path, modeRead, false)
	if err != nil {
		return err
	}

	runs, err := d.splitIntoRuns(cached.file)
	if err != nil {
		closeAndRemoveRuns(runs)

		return err
	}

	recordSortRuns(ctx, path, len(runs))

	merged, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".sorted-*")
	if err != nil {
		closeAndRemoveRuns(runs)

		return fmt.Errorf("error creating merge output for %q: %w", path, err)
	}

	if err := d.mergeRuns(runs, merged); err != nil {
		merged.Close()
		os.Remove(merged.Name())
		closeAndRemoveRuns(runs)

		return err
	}

	closeAndRemoveRuns(runs)

	return d.cache.replace(path, merged)
}

// splitIntoRuns recursively partitions src's lines into runs of strictly
// increasing time-of-day (each pass keeps every line later than the last
// one it kept and recurses on the rest), the Go analogue of the source's
// recursive unsorted-remainder split. Every returned *os.File is open,
// positioned at its end, and owned by the caller (close and remove it
// once done).
func (d *Driver[V]) splitIntoRuns(src *os.File) ([]*os.File, error) {
	dir := filepath.Dir(src.Name())

	sortedFile, err := os.CreateTemp(dir, "tsdb-sort-run-*")
	if err != nil {
		return nil, fmt.Errorf("error creating sort run file: %w", err)
	}

	unsortedFile, err := os.CreateTemp(dir, "tsdb-sort-rem-*")
	if err != nil {
		sortedFile.Close()
		os.Remove(sortedFile.Name())

		return nil, fmt.Errorf("error creating sort remainder file: %w", err)
	}

	scanner := newLineScanner(newBlockReader(src, false, d.blockSize, d.enc), false)

	var lastTime time.Duration

	haveLast := false
	hasUnsorted := false

	for {
		line, lineNo, ok, scanErr := scanner.next()
		if scanErr != nil {
			sortedFile.Close()
			unsortedFile.Close()
			os.Remove(sortedFile.Name())
			os.Remove(unsortedFile.Name())

			return nil, scanErr
		}

		if !ok {
			break
		}

		lineTime, cells, parseErr := parseLineTime(line)
		if parseErr != nil {
			sortedFile.Close()
			unsortedFile.Close()
			os.Remove(sortedFile.Name())
			os.Remove(unsortedFile.Name())

			return nil, &ParseError{Shard: src.Name(), LineNo: lineNo, Line: line, Err: parseErr}
		}

		target := sortedFile
		if !haveLast || lineTime > lastTime {
			lastTime = lineTime
			haveLast = true
		} else {
			target = unsortedFile
			hasUnsorted = true
		}

		if err := d.writeRaw(target, formatLine(lineTime, cells)); err != nil {
			sortedFile.Close()
			unsortedFile.Close()
			os.Remove(sortedFile.Name())
			os.Remove(unsortedFile.Name())

			return nil, err
		}
	}

	runs := []*os.File{sortedFile}

	if !hasUnsorted {
		unsortedFile.Close()
		os.Remove(unsortedFile.Name())

		return runs, nil
	}

	if _, err := unsortedFile.Seek(0, io.SeekStart); err != nil {
		unsortedFile.Close()
		os.Remove(unsortedFile.Name())
		closeAndRemoveRuns(runs)

		return nil, fmt.Errorf("error rewinding sort remainder: %w", err)
	}

	subRuns, err := d.splitIntoRuns(unsortedFile)

	unsortedFile.Close()
	os.Remove(unsortedFile.Name())

	if err != nil {
		closeAndRemoveRuns(runs)

		return nil, err
	}

	return append(runs, subRuns...), nil
}

func closeAndRemoveRuns(runs []*os.File) {
	for _, f := range runs {
		f.Close()
		os.Remove(f.Name())
	}
}

// mergeItem is one run's current head line in the k-way merge heap.
type mergeItem struct {
	time   time.Duration
	cells  []string
	reader *blockReader
}

// mergeHeap is a container/heap min-heap of mergeItems ordered by time,
// the idiomatic Go replacement for the source's heapq.merge over
// generators: each popped item is written out and immediately replaced by
// its run's next line, if any.
type mergeHeap []*mergeItem

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return h[i].time < h[j].time }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(*mergeItem)) }

func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

func (d *Driver[V]) mergeRuns(runs []*os.File, out *os.File) error {
	h := make(mergeHeap, 0, len(runs))

	for _, f := range runs {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("error rewinding run %q: %w", f.Name(), err)
		}

		reader := newBlockReader(f, false, d.blockSize, d.enc)

		item, ok, err := nextMergeItem(reader)
		if err != nil {
			return err
		}

		if ok {
			h = append(h, item)
		}
	}

	heap.Init(&h)

	for h.Len() > 0 {
		item := heap.Pop(&h).(*mergeItem)

		if err := d.writeRaw(out, formatLine(item.time, item.cells)); err != nil {
			return err
		}

		next, ok, err := nextMergeItem(item.reader)
		if err != nil {
			return err
		}

		if ok {
			heap.Push(&h, next)
		}
	}

	return nil
}

func nextMergeItem(reader *blockReader) (*mergeItem, bool, error) {
	line, ok, err := reader.Next()
	if err != nil {
		return nil, false, err
	}

	if !ok {
		return nil, false, nil
	}

	lineTime, cells, err := parseLineTime(line)
	if err != nil {
		return nil, false, fmt.Errorf("error re-parsing sort run line: %w", err)
	}

	return &mergeItem{time: lineTime, cells: cells, reader: reader}, true, nil
}

// QueryInterval returns a Cursor over the half-open interval [start, stop):
// a measurement at exactly stop is never yielded, and start == stop always
// yields an empty cursor. start must not be after stop.
func (d *Driver[V]) QueryInterval(ctx context.Context, start, stop time.Time) (*Cursor[V], error) {
	_, end := recordOp(ctx, "QueryInterval")

	if err := d.requireAccess("QueryInterval", Read); err != nil {
		end(err)

		return nil, err
	}

	if start.After(stop) {
		err := fmt.Errorf("%w: start %s is after stop %s", ErrRange, start, stop)
		end(err)

		return nil, err
	}

	cur := newCursor(d, start, stop)
	end(nil)

	return cur, nil
}
