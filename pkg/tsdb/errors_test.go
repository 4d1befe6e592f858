package tsdb

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseError(t *testing.T) {
	t.Parallel()

	inner := errors.New("bad time field")
	err := &ParseError{Shard: "/db/a/2020/04/01.txt", LineNo: -3, Line: "garbage", Err: inner}

	assert.Contains(t, err.Error(), "/db/a/2020/04/01.txt")
	assert.Contains(t, err.Error(), "-3")
	assert.ErrorIs(t, err, inner)
}

func TestAccessError(t *testing.T) {
	t.Parallel()

	err := accessError("Insert", Write)
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "Insert")
	assert.Contains(t, err.Error(), "WRITE")
}

func TestErrNotOpen_isErrUsage(t *testing.T) {
	t.Parallel()

	assert.ErrorIs(t, ErrNotOpen, ErrUsage)
}
