package tsdb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeOfDay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "10:00:00", formatTimeOfDay(10*time.Hour))
	assert.Equal(t, "00:00:00", formatTimeOfDay(0))
	assert.Equal(t, "10:00:00.500000", formatTimeOfDay(10*time.Hour+500*time.Millisecond))
}

func TestParseTimeOfDay_roundTrip(t *testing.T) {
	t.Parallel()

	for _, tod := range []time.Duration{
		0,
		10 * time.Hour,
		10*time.Hour + 30*time.Minute + 5*time.Second,
		10*time.Hour + 500*time.Microsecond,
	} {
		s := formatTimeOfDay(tod)

		got, err := parseTimeOfDay(s)
		require.NoError(t, err)
		assert.Equal(t, tod, got)
	}
}

func TestParseTimeOfDay_invalid(t *testing.T) {
	t.Parallel()

	_, err := parseTimeOfDay("not-a-time")
	assert.Error(t, err)
}

func TestFormatLine(t *testing.T) {
	t.Parallel()

	got := formatLine(10*time.Hour, []string{"1.5", "2.5"})
	assert.Equal(t, "10:00:00 1.5 2.5\n", got)
}

func TestIsCommentOrBlank(t *testing.T) {
	t.Parallel()

	assert.True(t, isCommentOrBlank(""))
	assert.True(t, isCommentOrBlank("   "))
	assert.True(t, isCommentOrBlank("# a comment"))
	assert.True(t, isCommentOrBlank("   # indented comment"))
	assert.False(t, isCommentOrBlank("10:00:00 1.5"))
}

func TestSplitLine(t *testing.T) {
	t.Parallel()

	field, cells := splitLine("10:00:00 1.5 2.5")
	assert.Equal(t, "10:00:00", field)
	assert.Equal(t, []string{"1.5", "2.5"}, cells)

	field, cells = splitLine("")
	assert.Equal(t, "", field)
	assert.Nil(t, cells)
}

func TestParseLineTime(t *testing.T) {
	t.Parallel()

	tod, cells, err := parseLineTime("10:00:00 1.5 2.5")
	require.NoError(t, err)
	assert.Equal(t, 10*time.Hour, tod)
	assert.Equal(t, []string{"1.5", "2.5"}, cells)

	_, _, err = parseLineTime("")
	assert.Error(t, err)

	_, _, err = parseLineTime("garbage 1.5")
	assert.Error(t, err)
}

func TestTimeOfDay(t *testing.T) {
	t.Parallel()

	ts := time.Date(2020, time.April, 1, 10, 30, 5, 0, time.UTC)
	assert.Equal(t, 10*time.Hour+30*time.Minute+5*time.Second, timeOfDay(ts))
}
