package digest

import (
	"time"

	"github.com/dustin/go-humanize"
)

// TimestampLayout matches JavaScript's Date.toISOString output.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in UTC with millisecond precision.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Millisecond).Format(TimestampLayout)
}

// ParseTimestamp accepts RFC 3339 timestamps (fractional seconds optional) and
// bare YYYY-MM-DD dates. Anything else yields the zero time.
func ParseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t
	}
	return time.Time{}
}

// FormatDate renders "Jan 2, 2006". Unparseable input is returned as-is.
func FormatDate(s string) string {
	t := ParseTimestamp(s)
	if t.IsZero() {
		return s
	}
	return t.Format("Jan 2, 2006")
}

// FormatLongDate renders "January 2, 2006". Unparseable input is returned as-is.
func FormatLongDate(s string) string {
	t := ParseTimestamp(s)
	if t.IsZero() {
		return s
	}
	return t.Format("January 2, 2006")
}

// FormatDateRange renders a range, collapsing to one date when start equals end.
func FormatDateRange(r DateRange) string {
	start, end := ParseTimestamp(r.Start), ParseTimestamp(r.End)
	if !start.IsZero() && start.Equal(end) {
		return FormatDate(r.Start)
	}
	return FormatDate(r.Start) + " - " + FormatDate(r.End)
}

// TimeAgo renders "Today", "Yesterday" or a relative phrase like "3 days ago".
func TimeAgo(s string, now time.Time) string {
	t := ParseTimestamp(s)
	if t.IsZero() {
		return s
	}
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return "Today"
	}
	y := now.AddDate(0, 0, -1)
	yy, ym, yd := y.Date()
	if ty == yy && tm == ym && td == yd {
		return "Yesterday"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}
