package tsdb

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCodec treats a measurement's values as already being the cell
// strings a shard line stores, the same identity codec device.StringCodec
// provides in the exported API.
type testCodec struct{}

func (testCodec) Format(values []string) []string { return values }

func (testCodec) Parse(cells []string) ([]string, error) {
	out := make([]string, len(cells))
	copy(out, cells)

	return out, nil
}

func TestDriver_AppendRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()

	at := time.Date(2020, time.April, 1, 10, 0, 0, 0, time.UTC)

	drv := New[[]string](root, Write|Read, testCodec{})
	drv.Open(ctx)

	require.NoError(t, drv.Append(ctx, at, []string{"1.5"}))
	require.NoError(t, drv.Flush(ctx))

	cur, err := drv.QueryInterval(ctx, at, at.Add(time.Second))
	require.NoError(t, err)

	got, err := cur.All()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, at, got[0].Time)
	assert.Equal(t, []string{"1.5"}, got[0].Values)

	require.NoError(t, drv.Close(ctx))
}

func TestDriver_InOrderInsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()

	day := time.Date(2020, time.February, 15, 0, 0, 0, 0, time.UTC)

	drv := New[[]string](root, Write|Append|Read, testCodec{})
	drv.Open(ctx)

	require.NoError(t, drv.Append(ctx, day.Add(11*time.Hour+57*time.Minute+35*time.Second), []string{"a"}))
	require.NoError(t, drv.Append(ctx, day.Add(12*time.Hour+1*time.Minute+20*time.Second), []string{"b"}))
	require.NoError(t, drv.Flush(ctx))

	require.NoError(t, drv.Insert(ctx, day.Add(12*time.Hour+5*time.Second), []string{"c"}))

	cur, err := drv.QueryInterval(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	got, err := cur.All()
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a"}, got[0].Values)
	assert.Equal(t, []string{"c"}, got[1].Values)
	assert.Equal(t, []string{"b"}, got[2].Values)

	require.NoError(t, drv.Close(ctx))
}

func TestDriver_SortShuffled(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()

	start := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

	var stamps []time.Time

	for i := 0; i < 17*4; i++ {
		stamps = append(stamps, start.Add(time.Duration(i)*6*time.Hour))
	}

	shuffled := append([]time.Time{}, stamps...)
	rng := rand.New(rand.NewSource(1))
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	drv := New[[]string](root, Write|Append|Read, testCodec{})
	drv.Open(ctx)

	for _, ts := range shuffled {
		require.NoError(t, drv.Append(ctx, ts, []string{ts.Format(time.RFC3339)}))
	}

	require.NoError(t, drv.Flush(ctx))
	require.NoError(t, drv.Sort(ctx))

	cur, err := drv.QueryInterval(ctx, start, start.AddDate(0, 0, 18))
	require.NoError(t, err)

	got, err := cur.All()
	require.NoError(t, err)
	require.Len(t, got, len(stamps))

	for i, m := range got {
		assert.True(t, m.Time.Equal(stamps[i]), "index %d: want %s, got %s", i, stamps[i], m.Time)
	}

	require.NoError(t, drv.Close(ctx))
}

func TestDriver_SortIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()

	day := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)

	drv := New[[]string](root, Write|Append|Read, testCodec{})
	drv.Open(ctx)

	for i := 0; i < 5; i++ {
		require.NoError(t, drv.Append(ctx, day.Add(time.Duration(i)*time.Hour), []string{"v"}))
	}

	require.NoError(t, drv.Flush(ctx))
	require.NoError(t, drv.Sort(ctx))

	before, err := drv.QueryInterval(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	beforeRows, err := before.All()
	require.NoError(t, err)

	require.NoError(t, drv.Sort(ctx))

	after, err := drv.QueryInterval(ctx, day, day.AddDate(0, 0, 1))
	require.NoError(t, err)

	afterRows, err := after.All()
	require.NoError(t, err)

	assert.Equal(t, beforeRows, afterRows)

	require.NoError(t, drv.Close(ctx))
}

func TestDriver_AccessMismatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	at := time.Date(2020, time.April, 1, 10, 0, 0, 0, time.UTC)

	readOnly := New[[]string](root, Read, testCodec{})
	readOnly.Open(ctx)
	defer readOnly.Close(ctx)

	err := readOnly.Append(ctx, at, []string{"x"})
	assert.ErrorIs(t, err, ErrUsage)

	writeOnly := New[[]string](root, Write, testCodec{})
	writeOnly.Open(ctx)
	defer writeOnly.Close(ctx)

	_, err = writeOnly.QueryInterval(ctx, at, at)
	assert.ErrorIs(t, err, ErrUsage)
}

func TestDriver_RequireAccess_notOpen(t *testing.T) {
	t.Parallel()

	drv := New[[]string](t.TempDir(), Write, testCodec{})

	err := drv.Append(context.Background(), time.Now(), []string{"x"})
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestDriver_QueryInterval_rangeError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	drv := New[[]string](t.TempDir(), Read, testCodec{})
	drv.Open(ctx)
	defer drv.Close(ctx)

	now := time.Now()

	_, err := drv.QueryInterval(ctx, now, now.Add(-time.Second))
	assert.ErrorIs(t, err, ErrRange)
}
