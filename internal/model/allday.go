package model

import (
	"sxcal/internal/temporal"
)

// ClassifyAllDay rewrites an event spanning exactly [00:00, 23:59] of one
// date into a PlainDate event so timed grids render it in the all-day row.
// Only the "day" and "week" views are affected; any other view, including an
// empty one before the widget is initialized, leaves the event untouched.
func ClassifyAllDay(ev Event, activeView string) Event {
	if activeView != "day" && activeView != "week" {
		return ev
	}
	if !ev.Start.IsZoned() || !ev.End.IsZoned() {
		return ev
	}
	s, e := ev.Start.Time(), ev.End.Time()
	if temporal.DateOf(s) != temporal.DateOf(e) {
		return ev
	}
	if s.Hour() != 0 || s.Minute() != 0 || e.Hour() != 23 || e.Minute() != 59 {
		return ev
	}
	d := temporal.DateOf(s)
	ev.Start = temporal.DateValue(d)
	ev.End = temporal.DateValue(d)
	return ev
}
