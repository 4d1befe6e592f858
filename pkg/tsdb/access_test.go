package tsdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccessType_Has(t *testing.T) {
	t.Parallel()

	assert.True(t, Write.Has(Append))
	assert.False(t, Read.Has(Append))
	assert.True(t, Write.Has(Write))
	assert.False(t, Append.Has(Write))
}

func TestAccessType_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "READ|WRITE", (Read | Write).String())
	assert.Equal(t, "WRITE", Write.String())
	assert.Equal(t, "READ", Read.String())
	assert.Equal(t, "APPEND", Append.String())
	assert.Equal(t, "NONE", AccessType(0).String())
}
