// Package widget is a headless calendar engine: it keeps the state a
// calendar UI renders (views, selected date, visible range, events) and
// raises the same callbacks a rendered calendar would on user interaction.
package widget

import (
	"time"

	"sxcal/internal/calconfig"
	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/signal"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
)

// Callbacks are raised synchronously, in the order the calendar produces
// them. Nil callbacks are skipped.
type Callbacks struct {
	OnRangeUpdate        func(r model.Range)
	BeforeRender         func(app *App)
	OnRender             func(app *App)
	OnEventClick         func(ev model.Event)
	OnSelectedDateUpdate func(d temporal.PlainDate)
	OnEventUpdate        func(ev model.Event)

	OnMouseDownDateTime      func(at time.Time)
	OnMouseDownMonthGridDate func(d temporal.PlainDate)
	OnMouseDownDateGridDate  func(d temporal.PlainDate)

	// Resource scheduler only: the user scrolled dates into view.
	OnLazyLoadDate  func(dates []time.Time)
	OnLazyLoadMonth func(dates []time.Time)
}

// Config is the construction input of a calendar. Zero dates mean unset.
type Config struct {
	Views        []views.View
	Calendars    map[string]model.Calendar
	DefaultView  string
	SelectedDate temporal.PlainDate
	MinDate      temporal.PlainDate
	MaxDate      temporal.PlainDate

	Location       *time.Location
	Locale         string
	FirstDayOfWeek time.Weekday
	IsDark         bool

	DayBoundaries    calconfig.DayBoundaries
	WeekOptions      calconfig.WeekOptions
	MonthGridOptions calconfig.MonthGridOptions

	Resources *model.ResourceConfig
	Events    []model.Event
	Callbacks Callbacks

	// Batcher groups state changes; a new one is created when nil.
	Batcher *signal.Batcher
	// Now defaults to time.Now.
	Now func() time.Time
}

// CalendarState is the view part of the app state. SetView may be replaced
// (for example in BeforeRender) to observe view changes.
type CalendarState struct {
	View    *signal.Field[string]
	Range   *signal.Field[model.Range]
	SetView func(viewName string, selected temporal.PlainDate)
}

type DatePickerState struct {
	SelectedDate *signal.Field[temporal.PlainDate]
}

// App is the live state of one calendar.
type App struct {
	Config          *Config
	CalendarState   CalendarState
	DatePickerState DatePickerState
	Events          *EventStore
	Batcher         *signal.Batcher

	plugins   map[PluginKind]Plugin
	container string
	rendered  bool
}

func (a *App) Plugin(kind PluginKind) (Plugin, bool) {
	p, ok := a.plugins[kind]
	return p, ok
}

func (a *App) Location() *time.Location {
	if a.Config.Location == nil {
		return time.UTC
	}
	return a.Config.Location
}

func (a *App) Now() time.Time {
	if a.Config.Now != nil {
		return a.Config.Now().In(a.Location())
	}
	return time.Now().In(a.Location())
}

func (a *App) Container() string { return a.container }
func (a *App) Rendered() bool    { return a.rendered }

// ActiveView returns the descriptor of the current view.
func (a *App) ActiveView() (views.View, bool) {
	return views.Find(a.Config.Views, a.CalendarState.View.Get())
}

func (a *App) rangeOptions() views.RangeOptions {
	o := views.RangeOptions{FirstDayOfWeek: a.Config.FirstDayOfWeek, Location: a.Location()}
	if a.Config.WeekOptions.NDays != nil {
		o.NDays = *a.Config.WeekOptions.NDays
	}
	return o
}

// RefreshRange recomputes the visible range from the view and selected date.
func (a *App) RefreshRange() {
	v, ok := a.ActiveView()
	if !ok {
		return
	}
	a.CalendarState.Range.Set(v.Range(a.DatePickerState.SelectedDate.Get(), a.rangeOptions()))
}

// SelectDate moves the date picker, clamped to the configured bounds.
func (a *App) SelectDate(d temporal.PlainDate) {
	if !a.Config.MinDate.IsZero() && d.Before(a.Config.MinDate) {
		d = a.Config.MinDate
	}
	if !a.Config.MaxDate.IsZero() && d.After(a.Config.MaxDate) {
		d = a.Config.MaxDate
	}
	a.SetSelectedDate(d)
}

// SetSelectedDate sets the selected date without bounds checks.
func (a *App) SetSelectedDate(d temporal.PlainDate) {
	a.Batcher.Batch(func() {
		a.DatePickerState.SelectedDate.Set(d)
		a.RefreshRange()
	})
}

func (a *App) setView(viewName string, selected temporal.PlainDate) {
	if _, ok := views.Find(a.Config.Views, viewName); !ok {
		appLog.Error("ignoring unknown view", errUnknownView, "view", viewName, "container", a.container)
		return
	}
	a.Batcher.Batch(func() {
		a.CalendarState.View.Set(viewName)
		a.DatePickerState.SelectedDate.Set(selected)
		a.RefreshRange()
	})
}
