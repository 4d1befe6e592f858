package tsdb

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Cursor walks the measurements in the half-open interval [start, stop)
// across however many daily shards the interval spans, forward or
// backward, stopping as soon as the caller's callback asks it to. It
// assumes the shards it reads are sorted; call Driver.Sort first if that
// is not guaranteed.
//
// A Cursor becomes invalid once the Driver it was obtained from is closed.
type Cursor[V any] struct {
	driver *Driver[V]
	start  time.Time
	stop   time.Time
	dates  []time.Time // ascending, one per day the interval touches
}

func newCursor[V any](d *Driver[V], start, stop time.Time) *Cursor[V] {
	var dates []time.Time

	for day := truncateToDate(start); !day.After(truncateToDate(stop)); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day)
	}

	return &Cursor[V]{driver: d, start: start, stop: stop, dates: dates}
}

func truncateToDate(t time.Time) time.Time {
	y, m, day := t.Date()

	return time.Date(y, m, day, 0, 0, 0, 0, t.Location())
}

func sameDate(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()

	return y1 == y2 && m1 == m2 && d1 == d2
}

// boundsFor returns the half-open [lower, upper) time-of-day bounds that
// apply to date: the full day, except on the boundary dates, which are
// clipped to the query's start/stop time-of-day. upper is exclusive, so a
// line at exactly the query's stop instant is never yielded.
func (c *Cursor[V]) boundsFor(date time.Time) (time.Duration, time.Duration) {
	lower := time.Duration(0)
	upper := 24 * time.Hour

	if sameDate(date, c.start) {
		lower = timeOfDay(c.start)
	}

	if sameDate(date, c.stop) {
		upper = timeOfDay(c.stop)
	}

	return lower, upper
}

func (c *Cursor[V]) checkOpen() error {
	if !c.driver.IsOpen() {
		return fmt.Errorf("%w: cursor is invalid once its driver is closed", ErrNotOpen)
	}

	return nil
}

// Forward walks the interval oldest-to-newest, calling yield for each
// measurement. It stops early, without error, the first time yield
// returns false.
func (c *Cursor[V]) Forward(yield func(Measurement[V]) bool) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	for _, date := range c.dates {
		lower, upper := c.boundsFor(date)

		cont, err := c.walkShard(date, lower, upper, false, yield)
		if err != nil {
			return err
		}

		if !cont {
			return nil
		}
	}

	return nil
}

// Backward walks the interval newest-to-oldest, calling yield for each
// measurement. It stops early, without error, the first time yield
// returns false.
func (c *Cursor[V]) Backward(yield func(Measurement[V]) bool) error {
	if err := c.checkOpen(); err != nil {
		return err
	}

	for i := len(c.dates) - 1; i >= 0; i-- {
		date := c.dates[i]
		lower, upper := c.boundsFor(date)

		cont, err := c.walkShard(date, lower, upper, true, yield)
		if err != nil {
			return err
		}

		if !cont {
			return nil
		}
	}

	return nil
}

// All collects the full forward walk into a slice, for callers that don't
// need early termination.
func (c *Cursor[V]) All() ([]Measurement[V], error) {
	var out []Measurement[V]

	err := c.Forward(func(m Measurement[V]) bool {
		out = append(out, m)

		return true
	})

	return out, err
}

// AllReverse collects the full backward walk into a slice.
func (c *Cursor[V]) AllReverse() ([]Measurement[V], error) {
	var out []Measurement[V]

	err := c.Backward(func(m Measurement[V]) bool {
		out = append(out, m)

		return true
	})

	return out, err
}

// Iter streams the forward walk over a channel for range call sites. The
// channel is closed once the walk completes; any error is sent on the
// returned error channel before that happens, and the error channel is
// closed right after, so receiving from it yields nil after a clean walk.
// Cancel ctx to stop the walk early without draining the measurement
// channel.
func (c *Cursor[V]) Iter(ctx context.Context) (<-chan Measurement[V], <-chan error) {
	return c.iter(ctx, c.Forward)
}

// IterReverse is Iter's backward counterpart.
func (c *Cursor[V]) IterReverse(ctx context.Context) (<-chan Measurement[V], <-chan error) {
	return c.iter(ctx, c.Backward)
}

func (c *Cursor[V]) iter(ctx context.Context, walk func(func(Measurement[V]) bool) error) (<-chan Measurement[V], <-chan error) {
	items := make(chan Measurement[V])
	errs := make(chan error, 1)

	go func() {
		defer close(errs)
		defer close(items)

		err := walk(func(m Measurement[V]) bool {
			select {
			case <-ctx.Done():
				return false
			case items <- m:
				return true
			}
		})

		if err != nil {
			errs <- err
		} else if ctx.Err() != nil {
			errs <- ctx.Err()
		}
	}()

	return items, errs
}

// walkShard streams one day's shard in the given direction, yielding
// measurements whose time-of-day falls in [lower, upper) and stopping as
// soon as a line is found past the range on the trailing edge (the shard
// is assumed sorted, so nothing past that edge can still be in range). It
// returns cont=false once yield has asked to stop, so the caller can
// unwind without visiting the remaining shards.
func (c *Cursor[V]) walkShard(
	date time.Time,
	lower, upper time.Duration,
	reverse bool,
	yield func(Measurement[V]) bool,
) (bool, error) {
	path := shardPath(c.driver.root, date)

	cached, err := c.driver.cache.get(path, modeRead, false)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}

		return false, err
	}

	scanner := newLineScanner(newBlockReader(cached.file, reverse, c.driver.blockSize, c.driver.enc), reverse)

	for {
		line, lineNo, ok, err := scanner.next()
		if err != nil {
			return false, err
		}

		if !ok {
			return true, nil
		}

		tod, cells, err := parseLineTime(line)
		if err != nil {
			return false, &ParseError{Shard: path, LineNo: lineNo, Line: line, Err: err}
		}

		// [lower, upper) is half-open: a line at exactly upper is excluded,
		// not yielded.
		if reverse {
			if tod >= upper {
				continue
			}

			if tod < lower {
				return true, nil
			}
		} else {
			if tod < lower {
				continue
			}

			if tod >= upper {
				return true, nil
			}
		}

		values, err := c.driver.codec.Parse(cells)
		if err != nil {
			return false, &ParseError{Shard: path, LineNo: lineNo, Line: line, Err: err}
		}

		m := Measurement[V]{Time: date.Add(tod), Values: values}

		if !yield(m) {
			return false, nil
		}
	}
}
