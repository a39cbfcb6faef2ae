package plugins

import (
	"fmt"
	"time"

	"sxcal/internal/model"
	"sxcal/internal/temporal"
	"sxcal/internal/widget"
)

// DragAndDrop moves events, snapping timed events to the interval.
type DragAndDrop struct {
	app      *widget.App
	interval time.Duration
}

// NewDragAndDrop takes the snapping interval in minutes.
func NewDragAndDrop(intervalMinutes int) *DragAndDrop {
	return &DragAndDrop{interval: minutes(intervalMinutes)}
}

func (*DragAndDrop) Kind() widget.PluginKind { return widget.PluginDragAndDrop }

func (d *DragAndDrop) Install(app *widget.App) { d.app = app }

// Move shifts the event so it starts at start and keeps its duration. Date
// events move by whole days.
func (d *DragAndDrop) Move(id string, start time.Time) (model.Event, error) {
	ev, ok := d.app.Events.Get(id)
	if !ok {
		return model.Event{}, fmt.Errorf("move %s: %w", id, widget.ErrEventNotFound)
	}
	if ev.DNDDisabled() {
		return model.Event{}, fmt.Errorf("move %s: %w", id, ErrInteractionDisabled)
	}

	switch {
	case ev.Start.IsDate() && ev.End.IsDate():
		to := temporal.DateOf(start.In(d.app.Location()))
		days := int(to.In(time.UTC).Sub(ev.Start.Date().In(time.UTC)).Hours() / 24)
		ev.Start = temporal.DateValue(ev.Start.Date().AddDays(days))
		ev.End = temporal.DateValue(ev.End.Date().AddDays(days))
	case ev.Start.IsZoned() && ev.End.IsZoned():
		dur := ev.End.Time().Sub(ev.Start.Time())
		s := snap(start.In(d.app.Location()), d.interval)
		ev.Start = temporal.ZonedValue(s)
		ev.End = temporal.ZonedValue(s.Add(dur))
	default:
		return model.Event{}, fmt.Errorf("move %s: boundaries not normalized", id)
	}

	if err := d.app.Events.Update(ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// Resize changes the end of events, snapping to the interval.
type Resize struct {
	app      *widget.App
	interval time.Duration
}

// NewResize takes the snapping interval in minutes.
func NewResize(intervalMinutes int) *Resize {
	return &Resize{interval: minutes(intervalMinutes)}
}

func (*Resize) Kind() widget.PluginKind { return widget.PluginResize }

func (r *Resize) Install(app *widget.App) { r.app = app }

// Resize sets the event end. A timed event keeps at least one interval.
func (r *Resize) Resize(id string, end time.Time) (model.Event, error) {
	ev, ok := r.app.Events.Get(id)
	if !ok {
		return model.Event{}, fmt.Errorf("resize %s: %w", id, widget.ErrEventNotFound)
	}
	if ev.ResizeDisabled() {
		return model.Event{}, fmt.Errorf("resize %s: %w", id, ErrInteractionDisabled)
	}

	switch {
	case ev.Start.IsDate() && ev.End.IsDate():
		to := temporal.DateOf(end.In(r.app.Location()))
		if to.Before(ev.Start.Date()) {
			to = ev.Start.Date()
		}
		ev.End = temporal.DateValue(to)
	case ev.Start.IsZoned() && ev.End.IsZoned():
		e := snap(end.In(r.app.Location()), r.interval)
		if shortest := ev.Start.Time().Add(r.interval); e.Before(shortest) {
			e = shortest
		}
		ev.End = temporal.ZonedValue(e)
	default:
		return model.Event{}, fmt.Errorf("resize %s: boundaries not normalized", id)
	}

	if err := r.app.Events.Update(ev); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// ScrollController tracks the time the timed grid is scrolled to.
type ScrollController struct {
	initial  string
	position string
}

// NewScrollController takes the initial scroll time as "HH:mm"; empty means
// the start of the day boundaries.
func NewScrollController(initialScroll string) *ScrollController {
	return &ScrollController{initial: initialScroll}
}

func (*ScrollController) Kind() widget.PluginKind { return widget.PluginScrollController }

func (s *ScrollController) Install(app *widget.App) {
	s.position = "00:00"
	if app.Config.DayBoundaries.Start != "" {
		s.position = app.Config.DayBoundaries.Start
	}
	if s.initial != "" {
		if err := s.ScrollTo(s.initial); err != nil {
			s.position = "00:00"
		}
	}
}

// ScrollTo scrolls the grid to hhmm ("15:04").
func (s *ScrollController) ScrollTo(hhmm string) error {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return fmt.Errorf("scroll to %q: %w", hhmm, err)
	}
	s.position = t.Format("15:04")
	return nil
}

func (s *ScrollController) Position() string { return s.position }
