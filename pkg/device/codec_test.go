package device_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taransay/tsdb/pkg/device"
)

func TestStringCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	c := device.StringCodec{}

	cells := c.Format([]string{"a", "b"})
	assert.Equal(t, []string{"a", "b"}, cells)

	values, err := c.Parse(cells)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, values)
}

func TestFloatCodec_FormatPrecision(t *testing.T) {
	t.Parallel()

	c := device.FloatCodec{Precision: 2}
	assert.Equal(t, []string{"1.50", "-2.25"}, c.Format([]float64{1.5, -2.25}))

	shortest := device.FloatCodec{Precision: -1}
	assert.Equal(t, []string{"1.5"}, shortest.Format([]float64{1.5}))
}

func TestFloatCodec_ParseRoundTrip(t *testing.T) {
	t.Parallel()

	c := device.FloatCodec{Precision: 2}

	values, err := c.Parse(c.Format([]float64{1.5, -2.25, 0}))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, -2.25, 0}, values)
}

func TestFloatCodec_ParseInvalid(t *testing.T) {
	t.Parallel()

	c := device.FloatCodec{}

	_, err := c.Parse([]string{"not-a-float"})
	assert.Error(t, err)
}
