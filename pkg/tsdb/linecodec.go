package tsdb

import (
	"fmt"
	"strings"
	"time"
)

// timeOfDayLayouts are tried in order when parsing the first field of a
// line; the source accepts ISO 8601 time-of-day with an optional fractional
// second component of arbitrary width, so we try the common fixed-width
// forms used by time.Time.Format("15:04:05.999999999") output first and
// fall back to bare seconds.
var timeOfDayLayouts = []string{
	"15:04:05.999999999",
	"15:04:05",
}

// formatLine renders one shard line: the ISO time-of-day of tod, a space,
// then the space-joined cells, newline-terminated.
func formatLine(tod time.Duration, cells []string) string {
	var b strings.Builder

	b.WriteString(formatTimeOfDay(tod))

	for _, c := range cells {
		b.WriteByte(' ')
		b.WriteString(c)
	}

	b.WriteByte('\n')

	return b.String()
}

// formatTimeOfDay renders a time-of-day duration (since midnight) as
// HH:MM:SS[.ffffff], matching Python's `datetime.time.isoformat()`: the
// decimal point and fraction are omitted when the microsecond part is
// zero, and otherwise all six fractional digits are written (trailing
// zeros included). Sub-microsecond precision is truncated.
func formatTimeOfDay(tod time.Duration) string {
	h := int(tod / time.Hour)
	tod -= time.Duration(h) * time.Hour
	m := int(tod / time.Minute)
	tod -= time.Duration(m) * time.Minute
	s := int(tod / time.Second)
	tod -= time.Duration(s) * time.Second
	micros := tod / time.Microsecond

	if micros == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%02d:%02d:%02d.%06d", h, m, s, micros)
}

// parseTimeOfDay parses the HH:MM:SS[.ffffff] form back into a time-of-day
// duration since midnight.
func parseTimeOfDay(s string) (time.Duration, error) {
	var lastErr error

	for _, layout := range timeOfDayLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			lastErr = err

			continue
		}

		return time.Duration(t.Hour())*time.Hour +
			time.Duration(t.Minute())*time.Minute +
			time.Duration(t.Second())*time.Second +
			time.Duration(t.Nanosecond()), nil
	}

	return 0, fmt.Errorf("invalid time-of-day %q: %w", s, lastErr)
}

// isCommentOrBlank reports whether a raw line (as yielded by blockReader,
// which already drops truly empty lines) is a comment or all-whitespace
// line that readers must skip.
func isCommentOrBlank(line string) bool {
	trimmed := strings.TrimSpace(line)

	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

// splitLine splits a shard line into its time-of-day field and the
// remaining raw cell tokens, on any whitespace.
func splitLine(line string) (string, []string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	return fields[0], fields[1:]
}

// parseLineTime parses only the time-of-day field of a line, leaving the
// raw cell tokens unparsed. Used by Insert and Sort, which never need the
// value cells themselves.
func parseLineTime(line string) (time.Duration, []string, error) {
	field, cells := splitLine(line)
	if field == "" {
		return 0, nil, fmt.Errorf("empty line has no time-of-day field")
	}

	tod, err := parseTimeOfDay(field)
	if err != nil {
		return 0, nil, err
	}

	return tod, cells, nil
}

// timeOfDay extracts the time-since-midnight component of t, the only part
// a shard line records; the shard's own directory path carries the date.
func timeOfDay(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
