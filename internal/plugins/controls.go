// Package plugins implements the calendar plugins: state controls, the
// events service, interaction plugins and the optional feature plugins.
package plugins

import (
	"fmt"

	"sxcal/internal/calconfig"
	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
	"sxcal/internal/widget"
)

// Controls changes calendar state after creation without rebuilding it.
type Controls struct {
	app *widget.App
}

func NewControls() *Controls { return &Controls{} }

func (*Controls) Kind() widget.PluginKind { return widget.PluginCalendarControls }

func (c *Controls) Install(app *widget.App) { c.app = app }

func (c *Controls) SetView(viewName string) {
	c.app.CalendarState.SetView(viewName, c.app.DatePickerState.SelectedDate.Get())
}

func (c *Controls) SetDate(d temporal.PlainDate) {
	c.app.SetSelectedDate(d)
}

// SetFirstDayOfWeek takes 0 (Sunday) to 6 (Saturday).
func (c *Controls) SetFirstDayOfWeek(day int) error {
	if day < 0 || day > 6 {
		return fmt.Errorf("first day of week %d out of range 0..6", day)
	}
	c.app.Batcher.Batch(func() {
		c.app.Config.FirstDayOfWeek = weekday(day)
		c.app.RefreshRange()
	})
	return nil
}

func (c *Controls) SetLocale(locale string) error {
	if !calconfig.SupportedLocale(locale) {
		return fmt.Errorf("unsupported locale %q", locale)
	}
	c.app.Config.Locale = calconfig.NormalizeLocale(locale)
	return nil
}

// SetTimeZone moves the calendar to another zone. Timed events keep their
// instant and are shown in the new zone.
func (c *Controls) SetTimeZone(name string) error {
	loc, err := temporal.LoadZone(name)
	if err != nil {
		return fmt.Errorf("time zone %q: %w", name, err)
	}
	c.app.Batcher.Batch(func() {
		c.app.Config.Location = loc
		events := c.app.Events.GetAll()
		for i, ev := range events {
			if ev.Start.IsZoned() {
				events[i].Start = temporal.ZonedValue(ev.Start.Time().In(loc))
			}
			if ev.End.IsZoned() {
				events[i].End = temporal.ZonedValue(ev.End.Time().In(loc))
			}
		}
		c.app.Events.Set(events)
		c.app.RefreshRange()
	})
	return nil
}

// SetViews replaces the selectable views. If the active view is gone the
// first new view becomes active.
func (c *Controls) SetViews(vs []views.View) {
	if len(vs) == 0 {
		appLog.Error("ignoring views update", errNoViews, "container", c.app.Container())
		return
	}
	c.app.Batcher.Batch(func() {
		c.app.Config.Views = vs
		if _, ok := views.Find(vs, c.app.CalendarState.View.Get()); !ok {
			c.app.CalendarState.SetView(vs[0].ViewName, c.app.DatePickerState.SelectedDate.Get())
			return
		}
		c.app.RefreshRange()
	})
}

func (c *Controls) SetDayBoundaries(b calconfig.DayBoundaries) {
	c.app.Config.DayBoundaries = b
}

func (c *Controls) SetWeekOptions(o calconfig.WeekOptions) {
	c.app.Batcher.Batch(func() {
		c.app.Config.WeekOptions = o
		c.app.RefreshRange()
	})
}

func (c *Controls) SetCalendars(cals map[string]model.Calendar) {
	c.app.Config.Calendars = cals
}

func (c *Controls) SetMinDate(d temporal.PlainDate) { c.app.Config.MinDate = d }
func (c *Controls) SetMaxDate(d temporal.PlainDate) { c.app.Config.MaxDate = d }

func (c *Controls) SetMonthGridOptions(o calconfig.MonthGridOptions) {
	c.app.Config.MonthGridOptions = o
}

func (c *Controls) GetView() string             { return c.app.CalendarState.View.Get() }
func (c *Controls) GetDate() temporal.PlainDate { return c.app.DatePickerState.SelectedDate.Get() }
func (c *Controls) GetRange() model.Range       { return c.app.CalendarState.Range.Get() }
