package plugins

import (
	"errors"
	"time"
)

// ErrInteractionDisabled is returned when an event opts out of an interaction.
var ErrInteractionDisabled = errors.New("interaction disabled for event")

var errNoViews = errors.New("empty views list")

func weekday(d int) time.Weekday { return time.Weekday(d) }

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// snap rounds t to the nearest multiple of step counted from midnight.
func snap(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	m := midnight(t)
	return m.Add(t.Sub(m).Round(step))
}

// snapDown truncates t to a multiple of step counted from midnight.
func snapDown(t time.Time, step time.Duration) time.Time {
	if step <= 0 {
		return t
	}
	m := midnight(t)
	return m.Add(t.Sub(m).Truncate(step))
}

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }
