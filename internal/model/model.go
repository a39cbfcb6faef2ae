package model

import (
	"encoding/json"
	"time"

	appLog "sxcal/internal/log"
	"sxcal/internal/temporal"
)

// Event is a calendar event as held by the widget's events service.
// Start/End are either plain dates (all-day) or zoned date-times; fields the
// adapter does not know are preserved in Extra and sent back untouched.
type Event struct {
	ID          string         `json:"id"`
	Start       temporal.Value `json:"start"`
	End         temporal.Value `json:"end"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	People      []string       `json:"people,omitempty"`
	CalendarID  string         `json:"calendarId,omitempty"`
	ResourceID  string         `json:"resourceId,omitempty"`

	Options       *EventOptions  `json:"_options,omitempty"`
	CustomContent *CustomContent `json:"_customContent,omitempty"`

	// RRule is an RFC 5545 recurrence rule without the "RRULE:" prefix.
	RRule   string   `json:"rrule,omitempty"`
	ExDates []string `json:"exdate,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// EventOptions carries rendering hints for a single event.
type EventOptions struct {
	DisableDND        bool     `json:"disableDND,omitempty"`
	DisableResize     bool     `json:"disableResize,omitempty"`
	AdditionalClasses []string `json:"additionalClasses,omitempty"`
}

type CustomContent struct {
	TimeGrid    string `json:"timeGrid,omitempty"`
	DateGrid    string `json:"dateGrid,omitempty"`
	MonthGrid   string `json:"monthGrid,omitempty"`
	MonthAgenda string `json:"monthAgenda,omitempty"`
}

type eventAlias Event

var knownEventKeys = []string{
	"id", "start", "end", "title", "description", "location", "people",
	"calendarId", "resourceId", "_options", "_customContent", "rrule", "exdate",
}

func (e *Event) UnmarshalJSON(b []byte) error {
	var a eventAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range knownEventKeys {
		delete(all, k)
	}
	if len(all) > 0 {
		a.Extra = all
	}
	*e = Event(a)
	return nil
}

func (e Event) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(eventAlias(e))
	if err != nil || len(e.Extra) == 0 {
		return base, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, v := range e.Extra {
		if _, known := all[k]; !known {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

// DecodeEvents parses a JSON array of events. Empty input is an empty list.
func DecodeEvents(raw string) ([]Event, error) {
	if raw == "" {
		return []Event{}, nil
	}
	var events []Event
	if err := json.Unmarshal([]byte(raw), &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Normalize converts raw start/end strings into zoned values in loc.
// Unparsable boundaries are logged and left as they were.
func (e Event) Normalize(loc *time.Location) Event {
	if v, err := e.Start.Normalize(loc); err != nil {
		appLog.Error("event start not normalized", err, "id", e.ID, "start", e.Start.Raw())
	} else {
		e.Start = v
	}
	if v, err := e.End.Normalize(loc); err != nil {
		appLog.Error("event end not normalized", err, "id", e.ID, "end", e.End.Raw())
	} else {
		e.End = v
	}
	return e
}

// Clone returns a copy that shares no slices or pointers with e.
func (e Event) Clone() Event {
	c := e
	if e.People != nil {
		c.People = append([]string(nil), e.People...)
	}
	if e.ExDates != nil {
		c.ExDates = append([]string(nil), e.ExDates...)
	}
	if e.Options != nil {
		o := *e.Options
		o.AdditionalClasses = append([]string(nil), e.Options.AdditionalClasses...)
		c.Options = &o
	}
	if e.CustomContent != nil {
		cc := *e.CustomContent
		c.CustomContent = &cc
	}
	if e.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(e.Extra))
		for k, v := range e.Extra {
			c.Extra[k] = v
		}
	}
	return c
}

func (e Event) DNDDisabled() bool    { return e.Options != nil && e.Options.DisableDND }
func (e Event) ResizeDisabled() bool { return e.Options != nil && e.Options.DisableResize }

// Pin marks the event read-only for drag-and-drop and resize.
func (e Event) Pin() Event {
	e = e.Clone()
	if e.Options == nil {
		e.Options = &EventOptions{}
	}
	e.Options.DisableDND = true
	e.Options.DisableResize = true
	return e
}

// Overlaps reports whether the event intersects [start, end).
func (e Event) Overlaps(start, end time.Time, loc *time.Location) bool {
	s := e.Start.At(loc)
	en := e.End.At(loc)
	if e.End.IsDate() {
		en = en.AddDate(0, 0, 1)
	}
	return s.Before(end) && en.After(start)
}

// Range is the visible window of the active view.
type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}
