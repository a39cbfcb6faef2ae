package plugins

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/temporal"
	"sxcal/internal/widget"
)

var ErrNoDrawing = errors.New("no drawing in progress")

// DrawHooks connect a drawing to its owner. BeforeFinish decides whether the
// drawn event is kept; OnFinish runs for kept events.
type DrawHooks struct {
	BeforeFinish func(ctx context.Context, ev model.Event) (bool, error)
	OnFinish     func(ctx context.Context, ev model.Event) error
}

type drawing struct {
	id     string
	anchor time.Time
	timed  bool
}

// Draw lets the user create an event by dragging over empty grid space.
type Draw struct {
	app     *widget.App
	snap    time.Duration
	hooks   DrawHooks
	current *drawing
}

// NewDraw takes the snapping duration in minutes; 0 means 15.
func NewDraw(snapMinutes int, hooks DrawHooks) *Draw {
	if snapMinutes <= 0 {
		snapMinutes = 15
	}
	return &Draw{snap: minutes(snapMinutes), hooks: hooks}
}

func (*Draw) Kind() widget.PluginKind { return widget.PluginDraw }

func (d *Draw) Install(app *widget.App) { d.app = app }

func (d *Draw) start(ev model.Event, anchor time.Time, timed bool) {
	if d.current != nil {
		d.app.Events.Remove(d.current.id)
	}
	d.app.Events.Add(ev)
	d.current = &drawing{id: ev.ID, anchor: anchor, timed: timed}
}

// DrawTimeGridEvent starts a timed event of one snap duration at the
// snapped pointer position.
func (d *Draw) DrawTimeGridEvent(at time.Time, title string) {
	s := snapDown(at.In(d.app.Location()), d.snap)
	d.start(model.Event{
		ID:    uuid.NewString(),
		Title: title,
		Start: temporal.ZonedValue(s),
		End:   temporal.ZonedValue(s.Add(d.snap)),
	}, s, true)
}

// DrawDateGridEvent starts an all-day event on d.
func (d *Draw) DrawDateGridEvent(day temporal.PlainDate, title string) {
	d.start(model.Event{
		ID:    uuid.NewString(),
		Title: title,
		Start: temporal.DateValue(day),
		End:   temporal.DateValue(day),
	}, day.In(d.app.Location()), false)
}

func (d *Draw) DrawMonthGridEvent(day temporal.PlainDate, title string) {
	d.DrawDateGridEvent(day, title)
}

// Extend drags the free edge of the drawing to t. Dragging before the
// anchor moves the start instead.
func (d *Draw) Extend(t time.Time) error {
	if d.current == nil {
		return ErrNoDrawing
	}
	ev, ok := d.app.Events.Get(d.current.id)
	if !ok {
		d.current = nil
		return ErrNoDrawing
	}
	t = t.In(d.app.Location())

	if d.current.timed {
		anchor := d.current.anchor
		if t.Before(anchor) {
			ev.Start = temporal.ZonedValue(snapDown(t, d.snap))
			ev.End = temporal.ZonedValue(anchor.Add(d.snap))
		} else {
			end := snap(t, d.snap)
			if !end.After(anchor) {
				end = anchor.Add(d.snap)
			}
			ev.Start = temporal.ZonedValue(anchor)
			ev.End = temporal.ZonedValue(end)
		}
	} else {
		anchor := temporal.DateOf(d.current.anchor)
		day := temporal.DateOf(t)
		if day.Before(anchor) {
			ev.Start, ev.End = temporal.DateValue(day), temporal.DateValue(anchor)
		} else {
			ev.Start, ev.End = temporal.DateValue(anchor), temporal.DateValue(day)
		}
	}
	return d.app.Events.Update(ev)
}

// Finish ends the drawing. The event is removed again unless BeforeFinish
// accepts it; a failing round trip counts as a rejection.
func (d *Draw) Finish(ctx context.Context) (model.Event, bool, error) {
	if d.current == nil {
		return model.Event{}, false, ErrNoDrawing
	}
	id := d.current.id
	d.current = nil
	ev, ok := d.app.Events.Get(id)
	if !ok {
		return model.Event{}, false, ErrNoDrawing
	}

	keep := true
	if d.hooks.BeforeFinish != nil {
		var err error
		keep, err = d.hooks.BeforeFinish(ctx, ev)
		if err != nil {
			d.app.Events.Remove(id)
			return ev, false, fmt.Errorf("validate drawn event %s: %w", id, err)
		}
	}
	if !keep {
		d.app.Events.Remove(id)
		appLog.Debug("drawn event rejected", "id", id, "container", d.app.Container())
		return ev, false, nil
	}

	if d.hooks.OnFinish != nil {
		if err := d.hooks.OnFinish(ctx, ev); err != nil {
			return ev, true, fmt.Errorf("finish drawn event %s: %w", id, err)
		}
	}
	return ev, true, nil
}

// Drawing returns the id of the event being drawn.
func (d *Draw) Drawing() (string, bool) {
	if d.current == nil {
		return "", false
	}
	return d.current.id, true
}
