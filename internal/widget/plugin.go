package widget

import (
	"context"
	"time"

	"sxcal/internal/calconfig"
	"sxcal/internal/model"
	"sxcal/internal/signal"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
)

// PluginKind identifies a plugin in the calendar's capability map.
type PluginKind int

const (
	PluginCalendarControls PluginKind = iota + 1
	PluginEventsService
	PluginDragAndDrop
	PluginResize
	PluginScrollController
	PluginEventRecurrence
	PluginDraw
	PluginICalendar
	PluginCurrentTime
	PluginSchedulingAssistant
)

var pluginNames = map[PluginKind]string{
	PluginCalendarControls:    "calendarControls",
	PluginEventsService:       "eventsService",
	PluginDragAndDrop:         "dragAndDrop",
	PluginResize:              "resize",
	PluginScrollController:    "scrollController",
	PluginEventRecurrence:     "eventRecurrence",
	PluginDraw:                "draw",
	PluginICalendar:           "ICalendarPlugin",
	PluginCurrentTime:         "currentTime",
	PluginSchedulingAssistant: "scheduling-assistant",
}

func (k PluginKind) String() string {
	if n, ok := pluginNames[k]; ok {
		return n
	}
	return "unknown"
}

// Plugin is the minimum a plugin implements.
type Plugin interface {
	Kind() PluginKind
}

// Installer plugins are bound to the app before the first render.
type Installer interface {
	Install(app *App)
}

// RenderHook plugins run after the first render.
type RenderHook interface {
	OnRender(app *App)
}

// Destroyer plugins release resources when the calendar is destroyed.
type Destroyer interface {
	Destroy()
}

// CalendarControls changes calendar state after creation.
type CalendarControls interface {
	Plugin
	SetView(viewName string)
	SetDate(d temporal.PlainDate)
	SetFirstDayOfWeek(day int) error
	SetLocale(locale string) error
	SetTimeZone(name string) error
	SetViews(vs []views.View)
	SetDayBoundaries(b calconfig.DayBoundaries)
	SetWeekOptions(o calconfig.WeekOptions)
	SetCalendars(cals map[string]model.Calendar)
	SetMinDate(d temporal.PlainDate)
	SetMaxDate(d temporal.PlainDate)
	SetMonthGridOptions(o calconfig.MonthGridOptions)
	GetView() string
	GetDate() temporal.PlainDate
	GetRange() model.Range
}

// EventsService edits the calendar's event collection.
type EventsService interface {
	Plugin
	Add(ev model.Event)
	Get(id string) (model.Event, bool)
	GetAll() []model.Event
	Remove(id string) bool
	Update(ev model.Event) error
	Set(events []model.Event)
}

type DragAndDrop interface {
	Plugin
	Move(id string, start time.Time) (model.Event, error)
}

type Resize interface {
	Plugin
	Resize(id string, end time.Time) (model.Event, error)
}

type ScrollController interface {
	Plugin
	ScrollTo(hhmm string) error
	Position() string
}

// EventRecurrence re-expands recurring series when the range changes.
type EventRecurrence interface {
	Plugin
	OnRangeUpdate(r model.Range)
}

// ICalendar holds events imported from iCalendar text.
type ICalendar interface {
	Plugin
	Between(start, end time.Time) error
}

type CurrentTime interface {
	Plugin
	Now() *signal.Field[time.Time]
}

// Draw creates events by dragging over empty grid space. A drawing is
// started by one of the Draw*Event calls, extended, then finished.
type Draw interface {
	Plugin
	DrawTimeGridEvent(at time.Time, title string)
	DrawDateGridEvent(d temporal.PlainDate, title string)
	DrawMonthGridEvent(d temporal.PlainDate, title string)
	Extend(to time.Time) error
	Finish(ctx context.Context) (model.Event, bool, error)
}

type SchedulingAssistant interface {
	Plugin
	CurrentStart() *signal.Field[time.Time]
	CurrentEnd() *signal.Field[time.Time]
	HasCollision() *signal.Field[bool]
	Move(start, end time.Time)
}
