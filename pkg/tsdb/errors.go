// Package tsdb implements the directory-backed time-series storage engine:
// shard path mapping, the reversible block line reader, the line codec, the
// shard handle cache, the directory driver, and the query cursor.
package tsdb

import (
	"errors"
	"fmt"
)

var (
	// ErrUsage is returned for programmer errors: calling an operation the
	// driver was not opened for, or iterating a cursor after its driver
	// closed.
	ErrUsage = errors.New("usage error")

	// ErrRange is returned by QueryInterval when start is after stop.
	ErrRange = errors.New("range error")

	// ErrNotOpen is returned when an operation is attempted on a driver that
	// has not been opened.
	ErrNotOpen = fmt.Errorf("%w: driver is not open", ErrUsage)
)

// ParseError is returned when a shard line cannot be decoded. LineNo is
// 1-based and counted in the direction of iteration; it is negative when the
// line was read during reverse iteration.
type ParseError struct {
	Shard  string
	LineNo int
	Line   string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d of %s: %s", e.LineNo, e.Shard, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// accessError builds the usage error raised by requireAccess.
func accessError(op string, want AccessType) error {
	return fmt.Errorf("%w: operation %q requires access type %s", ErrUsage, op, want)
}
