package model

import (
	"time"

	"sxcal/internal/temporal"
)

// Occurrence represents a single concrete instance of an event
// (after recurrence expansion and timezone normalization).
type Occurrence struct {
	SourceID string // feed or series the instance came from
	UID      string

	// InstanceKey uniquely identifies a single occurrence of a recurring
	// event, derived from the local start time.
	InstanceKey string

	Summary     string
	Description string
	Location    string

	AllDay bool

	// Start / End are in the display timezone.
	Start time.Time
	End   time.Time
}

// ID is the event id used for the occurrence inside the events service.
func (o Occurrence) ID() string {
	if o.InstanceKey == "" {
		return o.UID
	}
	return o.UID + "@" + o.InstanceKey
}

// Event converts the occurrence into a widget event. All-day occurrences end
// on the last covered date, which for an exclusive iCalendar DTEND is the day
// before.
func (o Occurrence) Event() Event {
	ev := Event{
		ID:          o.ID(),
		Title:       o.Summary,
		Description: o.Description,
		Location:    o.Location,
	}
	if o.AllDay {
		start := temporal.DateOf(o.Start)
		end := temporal.DateOf(o.End)
		if end.After(start) && o.End.Hour() == 0 && o.End.Minute() == 0 {
			end = end.AddDays(-1)
		}
		ev.Start = temporal.DateValue(start)
		ev.End = temporal.DateValue(end)
		return ev
	}
	ev.Start = temporal.ZonedValue(o.Start)
	ev.End = temporal.ZonedValue(o.End)
	return ev
}
