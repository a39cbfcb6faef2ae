package widget

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sxcal/internal/model"
	"sxcal/internal/signal"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
)

var (
	ErrAlreadyRendered = errors.New("calendar already rendered")
	ErrNotRendered     = errors.New("calendar not rendered")
	ErrPluginMissing   = errors.New("plugin not installed")
	errUnknownView     = errors.New("unknown view")
)

// Calendar is one calendar instance. It is not safe for concurrent use;
// callers serialize access.
type Calendar struct {
	app *App
}

// New builds a calendar from cfg with the given plugins. Plugins are keyed by
// kind; a kind may only be installed once.
func New(cfg Config, plugins ...Plugin) (*Calendar, error) {
	b := cfg.Batcher
	if b == nil {
		b = signal.NewBatcher()
		cfg.Batcher = b
	}
	app := &App{
		Config:  &cfg,
		Events:  NewEventStore(b),
		Batcher: b,
		plugins: make(map[PluginKind]Plugin, len(plugins)),
	}
	for _, p := range plugins {
		if p == nil {
			continue
		}
		if _, dup := app.plugins[p.Kind()]; dup {
			return nil, fmt.Errorf("plugin %s installed twice", p.Kind())
		}
		app.plugins[p.Kind()] = p
	}

	view := cfg.DefaultView
	if _, ok := views.Find(cfg.Views, view); !ok {
		view = ""
		if len(cfg.Views) > 0 {
			view = cfg.Views[0].ViewName
		}
	}
	selected := cfg.SelectedDate
	if selected.IsZero() {
		selected = temporal.DateOf(app.Now())
	}

	app.CalendarState = CalendarState{
		View:  signal.NewField(b, view),
		Range: signal.NewField(b, model.Range{}),
	}
	app.CalendarState.SetView = app.setView
	app.DatePickerState = DatePickerState{SelectedDate: signal.NewField(b, selected)}
	app.RefreshRange()

	for _, ev := range cfg.Events {
		app.Events.Add(ev)
	}

	app.DatePickerState.SelectedDate.Subscribe(func(d temporal.PlainDate) {
		if cb := app.Config.Callbacks.OnSelectedDateUpdate; app.rendered && cb != nil {
			cb(d)
		}
	})
	app.CalendarState.Range.Subscribe(func(r model.Range) {
		if cb := app.Config.Callbacks.OnRangeUpdate; app.rendered && cb != nil {
			cb(r)
		}
	})

	return &Calendar{app: app}, nil
}

func (c *Calendar) App() *App { return c.app }

// Render binds the calendar to container, runs plugin installation and the
// BeforeRender callback, then OnRender and the plugins' render hooks.
func (c *Calendar) Render(container string) error {
	app := c.app
	if app.rendered {
		return ErrAlreadyRendered
	}
	app.container = container

	app.Batcher.Batch(func() {
		for _, kind := range sortedKinds(app.plugins) {
			if in, ok := app.plugins[kind].(Installer); ok {
				in.Install(app)
			}
		}
		if cb := app.Config.Callbacks.BeforeRender; cb != nil {
			cb(app)
		}
	})

	app.rendered = true
	app.Batcher.Batch(func() {
		if cb := app.Config.Callbacks.OnRender; cb != nil {
			cb(app)
		}
		for _, kind := range sortedKinds(app.plugins) {
			if h, ok := app.plugins[kind].(RenderHook); ok {
				h.OnRender(app)
			}
		}
	})
	return nil
}

// Destroy releases plugin resources.
func (c *Calendar) Destroy() {
	for _, kind := range sortedKinds(c.app.plugins) {
		if d, ok := c.app.plugins[kind].(Destroyer); ok {
			d.Destroy()
		}
	}
	c.app.rendered = false
}

func sortedKinds(m map[PluginKind]Plugin) []PluginKind {
	out := make([]PluginKind, 0, len(m))
	for k := PluginCalendarControls; k <= PluginSchedulingAssistant; k++ {
		if _, ok := m[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// The methods below simulate user interaction. Each runs as one batch, so
// observers see a single coalesced update per interaction.

func (c *Calendar) interact(fn func() error) error {
	if !c.app.rendered {
		return ErrNotRendered
	}
	var err error
	c.app.Batcher.Batch(func() { err = fn() })
	return err
}

// ClickEvent raises OnEventClick for an event.
func (c *Calendar) ClickEvent(id string) error {
	return c.interact(func() error {
		ev, ok := c.app.Events.Get(id)
		if !ok {
			return fmt.Errorf("click %s: %w", id, ErrEventNotFound)
		}
		if cb := c.app.Config.Callbacks.OnEventClick; cb != nil {
			cb(ev)
		}
		return nil
	})
}

// DragEvent moves an event to start through the drag-and-drop plugin.
func (c *Calendar) DragEvent(id string, start time.Time) error {
	return c.interact(func() error {
		p, ok := c.app.plugins[PluginDragAndDrop].(DragAndDrop)
		if !ok {
			return fmt.Errorf("drag: %w", ErrPluginMissing)
		}
		ev, err := p.Move(id, start)
		if err != nil {
			return err
		}
		if cb := c.app.Config.Callbacks.OnEventUpdate; cb != nil {
			cb(ev)
		}
		return nil
	})
}

// ResizeEvent moves the end of an event through the resize plugin.
func (c *Calendar) ResizeEvent(id string, end time.Time) error {
	return c.interact(func() error {
		p, ok := c.app.plugins[PluginResize].(Resize)
		if !ok {
			return fmt.Errorf("resize: %w", ErrPluginMissing)
		}
		ev, err := p.Resize(id, end)
		if err != nil {
			return err
		}
		if cb := c.app.Config.Callbacks.OnEventUpdate; cb != nil {
			cb(ev)
		}
		return nil
	})
}

// SelectDate picks a date in the date picker.
func (c *Calendar) SelectDate(d temporal.PlainDate) error {
	return c.interact(func() error {
		c.app.SelectDate(d)
		return nil
	})
}

// ChangeView switches the view from the view selector.
func (c *Calendar) ChangeView(viewName string) error {
	return c.interact(func() error {
		if _, ok := views.Find(c.app.Config.Views, viewName); !ok {
			return fmt.Errorf("view %q: %w", viewName, errUnknownView)
		}
		c.app.CalendarState.SetView(viewName, c.app.DatePickerState.SelectedDate.Get())
		return nil
	})
}

// MouseDownDateTime presses on a time slot of a timed grid.
func (c *Calendar) MouseDownDateTime(at time.Time) error {
	return c.interact(func() error {
		if cb := c.app.Config.Callbacks.OnMouseDownDateTime; cb != nil {
			cb(at.In(c.app.Location()))
		}
		return nil
	})
}

// MouseDownMonthGridDate presses on a day cell of the month grid.
func (c *Calendar) MouseDownMonthGridDate(d temporal.PlainDate) error {
	return c.interact(func() error {
		if cb := c.app.Config.Callbacks.OnMouseDownMonthGridDate; cb != nil {
			cb(d)
		}
		return nil
	})
}

// MouseDownDateGridDate presses on the all-day row of a timed grid.
func (c *Calendar) MouseDownDateGridDate(d temporal.PlainDate) error {
	return c.interact(func() error {
		if cb := c.app.Config.Callbacks.OnMouseDownDateGridDate; cb != nil {
			cb(d)
		}
		return nil
	})
}

// ScrollResources reports dates scrolled into view in a resource scheduler
// view: the hourly view lazy-loads by day, the daily view by month.
func (c *Calendar) ScrollResources(dates []time.Time) error {
	return c.interact(func() error {
		cbs := c.app.Config.Callbacks
		switch c.app.CalendarState.View.Get() {
		case views.Hourly:
			if cbs.OnLazyLoadDate != nil {
				cbs.OnLazyLoadDate(dates)
			}
		case views.Daily:
			if cbs.OnLazyLoadMonth != nil {
				cbs.OnLazyLoadMonth(dates)
			}
		default:
			return fmt.Errorf("lazy load: view %q has no resources", c.app.CalendarState.View.Get())
		}
		return nil
	})
}

// DrawTo drags the pointer of an ongoing drawing to t.
func (c *Calendar) DrawTo(t time.Time) error {
	return c.interact(func() error {
		p, ok := c.app.plugins[PluginDraw].(Draw)
		if !ok {
			return fmt.Errorf("draw: %w", ErrPluginMissing)
		}
		return p.Extend(t)
	})
}

// FinishDraw releases the pointer. The drawn event is kept only if the draw
// plugin accepts it.
func (c *Calendar) FinishDraw(ctx context.Context) (model.Event, bool, error) {
	var (
		ev   model.Event
		kept bool
	)
	err := c.interact(func() error {
		p, ok := c.app.plugins[PluginDraw].(Draw)
		if !ok {
			return fmt.Errorf("draw: %w", ErrPluginMissing)
		}
		var err error
		ev, kept, err = p.Finish(ctx)
		return err
	})
	return ev, kept, err
}

// MoveSchedulingSlot drags the scheduling assistant's tentative slot.
func (c *Calendar) MoveSchedulingSlot(start, end time.Time) error {
	return c.interact(func() error {
		p, ok := c.app.plugins[PluginSchedulingAssistant].(SchedulingAssistant)
		if !ok {
			return fmt.Errorf("scheduling assistant: %w", ErrPluginMissing)
		}
		if !end.After(start) {
			return fmt.Errorf("scheduling assistant: end %s is not after start %s", end, start)
		}
		p.Move(start, end)
		return nil
	})
}
