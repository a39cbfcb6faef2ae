// Package temporal holds the calendar-aware value types exchanged with the
// widget: plain dates (no time, no zone) and zoned date-times, plus the
// parsing/formatting rules for the strings the server sends.
package temporal

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the ISO-8601 calendar date form used on the wire.
	DateLayout = "2006-01-02"
	// DateTimeLayout is the server's "yyyy-MM-dd HH:mm" event form.
	DateTimeLayout = "2006-01-02 15:04"
)

// PlainDate is a calendar date without time of day or zone.
type PlainDate struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the wall-clock date of t in its own location.
func DateOf(t time.Time) PlainDate {
	y, m, d := t.Date()
	return PlainDate{Year: y, Month: m, Day: d}
}

// ParseDate parses an ISO-8601 date ("2025-06-01"). A trailing time part is
// not accepted.
func ParseDate(s string) (PlainDate, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return PlainDate{}, fmt.Errorf("temporal: invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for literals in tests and tables.
func MustParseDate(s string) PlainDate {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d PlainDate) IsZero() bool {
	return d == PlainDate{}
}

// In returns midnight of d in loc.
func (d PlainDate) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d PlainDate) AddDays(n int) PlainDate {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// AddMonths adds n months, clamping the day to the end of the target month
// (Jan 31 + 1 month = Feb 28/29) like calendar libraries do.
func (d PlainDate) AddMonths(n int) PlainDate {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day
	if day > last {
		day = last
	}
	return PlainDate{Year: first.Year(), Month: first.Month(), Day: day}
}

func (d PlainDate) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}

// Compare returns -1, 0 or +1 using calendar ordering.
func (d PlainDate) Compare(o PlainDate) int {
	switch {
	case d.Year != o.Year:
		return sign(d.Year - o.Year)
	case d.Month != o.Month:
		return sign(int(d.Month) - int(o.Month))
	default:
		return sign(d.Day - o.Day)
	}
}

func (d PlainDate) Before(o PlainDate) bool { return d.Compare(o) < 0 }
func (d PlainDate) After(o PlainDate) bool  { return d.Compare(o) > 0 }

func (d PlainDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d PlainDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *PlainDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	p, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

var errEmpty = errors.New("temporal: empty value")

// dateTimeLayouts are tried in order by ToZoned. Offsets are parsed but only
// the wall clock is kept.
var dateTimeLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	DateTimeLayout,
	DateLayout,
}

// ToZoned parses an ISO-8601 date-time and attaches loc. The string is read as
// a wall-clock time: an explicit offset or a trailing "[Zone]" annotation is
// discarded, and a bare date means midnight.
func ToZoned(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmpty
	}
	if i := strings.IndexByte(s, '['); i > 0 && strings.HasSuffix(s, "]") {
		s = s[:i]
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateTimeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc), nil
	}
	return time.Time{}, fmt.Errorf("temporal: invalid date-time %q", s)
}

// LoadZone resolves an IANA zone name; empty means UTC.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// FormatZoned renders a zoned value for the server (RFC 3339).
func FormatZoned(t time.Time) string {
	return t.Format(time.RFC3339)
}
