package device_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taransay/tsdb/pkg/device"
	"github.com/taransay/tsdb/pkg/tsdb"
)

func TestDevice_AppendThenRead(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	at := time.Date(2020, time.April, 1, 10, 0, 0, 0, time.UTC)

	dev := device.New(root, "sensor-a", device.StringCodec{})

	err := dev.Appender(ctx, func(ctx context.Context, drv *tsdb.Driver[[]string]) error {
		return drv.Append(ctx, at, []string{"1.5"})
	})
	require.NoError(t, err)

	var rows []tsdb.Measurement[[]string]

	err = dev.Reader(ctx, func(ctx context.Context, drv *tsdb.Driver[[]string]) error {
		cur, err := drv.QueryInterval(ctx, at, at.Add(time.Second))
		if err != nil {
			return err
		}

		rows, err = cur.All()

		return err
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"1.5"}, rows[0].Values)
}

func TestDevice_NameAndRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dev := device.New(root, "sensor-a", device.StringCodec{})

	assert.Equal(t, "sensor-a", dev.Name())
	assert.Contains(t, dev.Root(), "sensor-a")
}

func TestDevice_Sort(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	day := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)

	dev := device.New(root, "sensor-a", device.StringCodec{})

	for _, offset := range []time.Duration{3 * time.Hour, time.Hour, 2 * time.Hour} {
		at := offset
		err := dev.Appender(ctx, func(ctx context.Context, drv *tsdb.Driver[[]string]) error {
			return drv.Append(ctx, day.Add(at), []string{at.String()})
		})
		require.NoError(t, err)
	}

	require.NoError(t, dev.Sort(ctx))

	var rows []tsdb.Measurement[[]string]

	err := dev.Reader(ctx, func(ctx context.Context, drv *tsdb.Driver[[]string]) error {
		cur, err := drv.QueryInterval(ctx, day, day.AddDate(0, 0, 1))
		if err != nil {
			return err
		}

		rows, err = cur.All()

		return err
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{(time.Hour).String()}, rows[0].Values)
	assert.Equal(t, []string{(2 * time.Hour).String()}, rows[1].Values)
	assert.Equal(t, []string{(3 * time.Hour).String()}, rows[2].Values)
}

func TestDevice_FloatCodecWithLatin1(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	at := time.Date(2020, time.April, 1, 10, 0, 0, 0, time.UTC)

	dev := device.New(root, "sensor-float", device.FloatCodec{Precision: 2},
		device.WithDriverOptions(tsdb.WithLatin1Encoding()))

	err := dev.Appender(ctx, func(ctx context.Context, drv *tsdb.Driver[[]float64]) error {
		return drv.Append(ctx, at, []float64{1.5, -2.25})
	})
	require.NoError(t, err)

	var rows []tsdb.Measurement[[]float64]

	err = dev.Reader(ctx, func(ctx context.Context, drv *tsdb.Driver[[]float64]) error {
		cur, err := drv.QueryInterval(ctx, at, at.Add(time.Second))
		if err != nil {
			return err
		}

		rows, err = cur.All()

		return err
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []float64{1.5, -2.25}, rows[0].Values)
}
