package schema

import (
	"cmp"
	"fmt"
	"time"
)

// monthLayout is the text form of a MonthKey.
const monthLayout = "2006-01"

// MonthKey is a calendar month used as the unit of temporal bucketing.
// Keys order chronologically on (Year, Month).
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the UTC calendar month containing t.
func MonthOf(t time.Time) MonthKey {
	u := t.UTC()
	return MonthKey{Year: u.Year(), Month: u.Month()}
}

// ParseMonthKey parses a "YYYY-MM" string.
func ParseMonthKey(s string) (MonthKey, error) {
	t, err := time.Parse(monthLayout, s)
	if err != nil {
		return MonthKey{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return MonthOf(t), nil
}

// Start returns the first instant of the month in UTC.
func (m MonthKey) Start() time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBefore returns t moved back n calendar months, keeping the wall clock.
// The day is clamped to the last day of the target month, so March 31 minus one
// month is February 28 or 29 rather than early March.
func MonthsBefore(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()-time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(t.Day(), lastDay),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// index is the number of months since year zero.
func (m MonthKey) index() int {
	return m.Year*12 + int(m.Month) - 1
}

// MonthsUntil returns the whole-month difference from m to other.
func (m MonthKey) MonthsUntil(other MonthKey) int {
	return other.index() - m.index()
}

// AddMonths returns the month n months after m (n may be negative).
func (m MonthKey) AddMonths(n int) MonthKey {
	i := m.index() + n
	return MonthKey{Year: i / 12, Month: time.Month(i%12 + 1)}
}

// Next returns the following calendar month.
func (m MonthKey) Next() MonthKey {
	return m.AddMonths(1)
}

// Before reports whether m is chronologically before other.
func (m MonthKey) Before(other MonthKey) bool {
	return m.index() < other.index()
}

// Compare returns -1, 0 or +1 depending on whether m is before, equal to or after other.
func (m MonthKey) Compare(other MonthKey) int {
	return cmp.Compare(m.index(), other.index())
}

// IsZero reports whether m is the zero MonthKey.
func (m MonthKey) IsZero() bool {
	return m.Year == 0 && m.Month == 0
}

// String returns the "YYYY-MM" form.
func (m MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// MarshalText implements encoding.TextMarshaler so maps keyed by month serialize stably.
func (m MonthKey) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MonthKey) UnmarshalText(b []byte) error {
	parsed, err := ParseMonthKey(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
