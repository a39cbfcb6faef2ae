package temporal

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind tells which representation a Value holds.
type Kind int

const (
	KindNone Kind = iota
	KindDate
	KindZoned
	// KindRaw is an unnormalized string kept after a failed parse.
	KindRaw
)

// Value is an event boundary: a PlainDate (all-day), a zoned date-time, or
// the original string when normalization failed.
type Value struct {
	kind Kind
	date PlainDate
	t    time.Time
	raw  string
}

func DateValue(d PlainDate) Value  { return Value{kind: KindDate, date: d} }
func ZonedValue(t time.Time) Value { return Value{kind: KindZoned, t: t} }
func RawValue(s string) Value      { return Value{kind: KindRaw, raw: s} }

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsZero() bool    { return v.kind == KindNone }
func (v Value) IsDate() bool    { return v.kind == KindDate }
func (v Value) IsZoned() bool   { return v.kind == KindZoned }
func (v Value) Time() time.Time { return v.t }
func (v Value) Raw() string     { return v.raw }

func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.date == o.date && v.t.Equal(o.t) && v.raw == o.raw
}

func (v Value) Location() *time.Location {
	if v.kind == KindZoned {
		return v.t.Location()
	}
	return nil
}

// Date returns the calendar date of the value (the wall date for zoned values).
func (v Value) Date() PlainDate {
	switch v.kind {
	case KindDate:
		return v.date
	case KindZoned:
		return DateOf(v.t)
	}
	return PlainDate{}
}

// At returns the instant of the value; dates resolve to midnight in loc.
func (v Value) At(loc *time.Location) time.Time {
	switch v.kind {
	case KindDate:
		return v.date.In(loc)
	case KindZoned:
		return v.t
	}
	return time.Time{}
}

// String is the server-transmittable form.
func (v Value) String() string {
	switch v.kind {
	case KindDate:
		return v.date.String()
	case KindZoned:
		return FormatZoned(v.t)
	case KindRaw:
		return v.raw
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNone {
		return []byte("null"), nil
	}
	return json.Marshal(v.String())
}

// UnmarshalJSON keeps the incoming string raw; callers normalize it with
// Normalize once the calendar zone is known.
func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Value{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*v = RawValue(s)
	return nil
}

// Normalize converts a raw value into a zoned value in loc. Already
// normalized values are returned unchanged.
func (v Value) Normalize(loc *time.Location) (Value, error) {
	if v.kind != KindRaw {
		return v, nil
	}
	t, err := ToZoned(v.raw, loc)
	if err != nil {
		return v, err
	}
	return ZonedValue(t), nil
}

// DateField is a configuration date option. Raw is what the server sent;
// Date is only meaningful when Valid is true. A value that is not a JSON
// string is kept verbatim in other and passed through untouched.
type DateField struct {
	Raw   string
	Date  PlainDate
	Valid bool
	other string
}

func NewDateField(d PlainDate) DateField {
	return DateField{Raw: d.String(), Date: d, Valid: true}
}

func (f DateField) IsSet() bool { return f.Raw != "" || f.Valid || f.other != "" }

// Text is the value as received, for logging.
func (f DateField) Text() string {
	if f.other != "" {
		return f.other
	}
	return f.Raw
}

func (f DateField) MarshalJSON() ([]byte, error) {
	switch {
	case f.other != "":
		return []byte(f.other), nil
	case !f.IsSet():
		return []byte("null"), nil
	case f.Valid:
		return json.Marshal(f.Date.String())
	}
	return json.Marshal(f.Raw)
}

func (f *DateField) UnmarshalJSON(b []byte) error {
	text := strings.TrimSpace(string(b))
	switch {
	case text == "null":
		*f = DateField{}
		return nil
	case !strings.HasPrefix(text, `"`):
		*f = DateField{other: text}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*f = DateField{Raw: s}
	return nil
}

// Normalize parses Raw into Date. On failure the field keeps its raw string.
func (f *DateField) Normalize() error {
	if f.other != "" {
		return fmt.Errorf("temporal: date is not a string: %s", f.other)
	}
	if f.Valid || f.Raw == "" {
		return nil
	}
	d, err := ParseDate(f.Raw)
	if err != nil {
		return err
	}
	f.Date = d
	f.Valid = true
	return nil
}
