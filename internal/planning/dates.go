package planning

import (
	"fmt"
	"time"
)

// DateLayout is the ISO day format every series key uses.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO day string. Malformed dates are a caller contract
// violation and surface as errors rather than being silently skipped.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// AddDays shifts an already-parsed day by n days and re-formats it.
func AddDays(t time.Time, n int) string {
	return t.AddDate(0, 0, n).Format(DateLayout)
}

// DiffDays returns the whole number of days from a to b. Both times are
// truncated to midnight UTC first so DST and sub-day offsets cannot skew the
// count.
func DiffDays(a, b time.Time) int {
	au := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bu := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bu.Sub(au).Hours() / 24)
}
