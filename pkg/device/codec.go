package device

import (
	"fmt"
	"strconv"

	"github.com/taransay/tsdb/pkg/tsdb"
)

// StringCodec is the default device codec: values are already the cell
// strings a shard line stores, so Format/Parse are the identity.
type StringCodec struct{}

var _ tsdb.Codec[[]string] = StringCodec{}

func (StringCodec) Format(values []string) []string { return values }

func (StringCodec) Parse(cells []string) ([]string, error) {
	out := make([]string, len(cells))
	copy(out, cells)

	return out, nil
}

// FloatCodec converts a row of float64 values to and from base-10 decimal
// text, for numeric-only devices. Pair it with
// device.WithDriverOptions(tsdb.WithLatin1Encoding()) so every shard byte
// stays single-width.
type FloatCodec struct {
	// Precision is the number of digits after the decimal point. A
	// negative value uses strconv's shortest round-trip representation.
	// The zero value, FloatCodec{}, has Precision 0 and so formats every
	// value with no fractional digits.
	Precision int
}

var _ tsdb.Codec[[]float64] = FloatCodec{}

func (c FloatCodec) Format(values []float64) []string {
	cells := make([]string, len(values))

	for i, v := range values {
		if c.Precision >= 0 {
			cells[i] = strconv.FormatFloat(v, 'f', c.Precision, 64)
		} else {
			cells[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	return cells
}

func (FloatCodec) Parse(cells []string) ([]float64, error) {
	values := make([]float64, len(cells))

	for i, c := range cells {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing float cell %q: %w", c, err)
		}

		values[i] = v
	}

	return values, nil
}
