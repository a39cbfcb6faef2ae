package adapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/notify"
	"sxcal/internal/temporal"
	"sxcal/internal/widget"
)

var errMissingID = errors.New("event without id")

// normalize prepares a server event for the widget: boundaries become zoned
// values in the calendar's zone and whole-day events are moved to the
// all-day row of timed views.
func (h *Handle) normalize(ev model.Event) model.Event {
	ev = ev.Normalize(h.app.Location())
	return model.ClassifyAllDay(ev, h.app.CalendarState.View.Get())
}

func decodeEvent(raw string) (model.Event, error) {
	var ev model.Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		return model.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.ID == "" {
		return model.Event{}, errMissingID
	}
	return ev, nil
}

func (h *Handle) withEvents(fn func(widget.EventsService) error) error {
	svc, ok := h.eventsService()
	if !ok {
		return fmt.Errorf("events service: %w", widget.ErrPluginMissing)
	}
	var err error
	h.app.Batcher.Batch(func() { err = fn(svc) })
	return err
}

// AddEvent adds one JSON event and publishes "calendar-event-added".
func (h *Handle) AddEvent(raw string) error {
	ev, err := decodeEvent(raw)
	if err != nil {
		return err
	}
	err = h.withEvents(func(svc widget.EventsService) error {
		svc.Add(h.normalize(ev))
		return nil
	})
	if err != nil {
		return err
	}
	h.publish(notify.EventAdded, notify.EventDetail{EventID: ev.ID})
	return nil
}

// RemoveEvent removes an event by id and publishes "calendar-event-removed",
// also when no such event was shown.
func (h *Handle) RemoveEvent(id string) error {
	err := h.withEvents(func(svc widget.EventsService) error {
		if !svc.Remove(id) {
			appLog.Debug("removed event was not shown", "id", id, "container", h.container)
		}
		return nil
	})
	if err != nil {
		return err
	}
	h.publish(notify.EventRemoved, notify.EventDetail{EventID: id})
	return nil
}

// UpdateEvent replaces one JSON event and publishes "calendar-event-updated".
func (h *Handle) UpdateEvent(raw string) error {
	ev, err := decodeEvent(raw)
	if err != nil {
		return err
	}
	err = h.withEvents(func(svc widget.EventsService) error {
		return svc.Update(h.normalize(ev))
	})
	if err != nil {
		return fmt.Errorf("update event %s: %w", ev.ID, err)
	}
	h.publish(notify.EventUpdated, notify.EventDetail{EventID: ev.ID})
	return nil
}

// OnUpdateRange applies the server's events for [start, end].
//
// With iCalendar data attached the imported events are refreshed for the
// range and every shown event is made read-only before the server's events
// are added next to them. Otherwise the server's events replace the whole
// collection. Recurring series are expanded for the range in both cases.
func (h *Handle) OnUpdateRange(eventsJSON, start, end string) error {
	events, err := model.DecodeEvents(strings.TrimSpace(eventsJSON))
	if err != nil {
		return fmt.Errorf("decode events: %w", err)
	}
	loc := h.app.Location()
	rng, err := parseRange(start, end, loc)
	if err != nil {
		return err
	}
	for i := range events {
		events[i] = h.normalize(events[i])
	}

	return h.withEvents(func(svc widget.EventsService) error {
		if ical, ok := pluginAs[widget.ICalendar](h.app, widget.PluginICalendar); ok {
			if err := ical.Between(rng.Start, rng.End); err != nil {
				appLog.Error("ical refresh failed", err, "container", h.container)
			}
			for _, ev := range svc.GetAll() {
				if err := svc.Update(ev.Pin()); err != nil {
					appLog.Error("event not pinned", err, "id", ev.ID, "container", h.container)
				}
			}
			for _, ev := range events {
				svc.Add(ev)
			}
		} else {
			svc.Set(events)
		}

		if rec, ok := pluginAs[widget.EventRecurrence](h.app, widget.PluginEventRecurrence); ok {
			rec.OnRangeUpdate(rng)
		}
		return nil
	})
}

func parseRange(start, end string, loc *time.Location) (model.Range, error) {
	s, err := temporal.ToZoned(start, loc)
	if err != nil {
		return model.Range{}, fmt.Errorf("range start: %w", err)
	}
	e, err := temporal.ToZoned(end, loc)
	if err != nil {
		return model.Range{}, fmt.Errorf("range end: %w", err)
	}
	return model.Range{Start: s, End: e}, nil
}
