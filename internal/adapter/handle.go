package adapter

import (
	"context"
	"time"

	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/notify"
	"sxcal/internal/plugins"
	"sxcal/internal/signal"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
	"sxcal/internal/widget"
)

// Handle is a calendar attached to a container.
type Handle struct {
	adapter   *Adapter
	container string
	// ctx carries values for outbound calls made from widget callbacks.
	ctx context.Context

	cal *widget.Calendar
	app *widget.App

	draw      *plugins.Draw
	drawTitle string

	unsubscribe []func()
}

func (h *Handle) Container() string          { return h.container }
func (h *Handle) Calendar() *widget.Calendar { return h.cal }

// Events returns the current event collection.
func (h *Handle) Events() []model.Event { return h.app.Events.GetAll() }

// View returns the native name of the active view.
func (h *Handle) View() string { return h.app.CalendarState.View.Get() }

func (h *Handle) SelectedDate() temporal.PlainDate {
	return h.app.DatePickerState.SelectedDate.Get()
}

func (h *Handle) Range() model.Range { return h.app.CalendarState.Range.Get() }

// Location is the calendar's time zone.
func (h *Handle) Location() *time.Location { return h.app.Location() }

// Destroy detaches the calendar from its container.
func (h *Handle) Destroy() {
	for _, u := range h.unsubscribe {
		u()
	}
	h.unsubscribe = nil
	h.cal.Destroy()
	if h.adapter.handle == h {
		h.adapter.handle = nil
	}
}

func (h *Handle) server() Server { return h.adapter.server }

func (h *Handle) publish(name notify.Name, detail any) {
	err := h.adapter.bus.Publish(notify.Notification{
		Container: h.container,
		Name:      name,
		Detail:    detail,
	})
	if err != nil {
		appLog.Error("notification not delivered", err, "name", name, "container", h.container)
	}
}

// call logs a failed outbound call; the widget does not wait for replies.
func (h *Handle) call(method string, err error) {
	if err != nil {
		appLog.Error("server call failed", err, "method", method, "container", h.container)
	}
}

func (h *Handle) controls() (widget.CalendarControls, bool) {
	return pluginAs[widget.CalendarControls](h.app, widget.PluginCalendarControls)
}

func (h *Handle) eventsService() (widget.EventsService, bool) {
	return pluginAs[widget.EventsService](h.app, widget.PluginEventsService)
}

func (h *Handle) requestRange(r model.Range) {
	h.call("updateRange", h.server().UpdateRange(h.ctx, r.Start, r.End))
}

func (h *Handle) callbacks() widget.Callbacks {
	cb := widget.Callbacks{
		OnRangeUpdate: h.requestRange,
		BeforeRender: func(app *widget.App) {
			// Report every later view change, whoever triggers it.
			setView := app.CalendarState.SetView
			app.CalendarState.SetView = func(viewName string, selected temporal.PlainDate) {
				setView(viewName, selected)
				if app.CalendarState.View.Get() != viewName {
					return
				}
				h.publish(notify.ViewDateUpdated, notify.ViewDateDetail{
					ViewName:     viewName,
					SelectedDate: selected.String(),
				})
			}
			h.requestRange(app.CalendarState.Range.Get())
		},
		OnEventClick: func(ev model.Event) {
			h.call("onCalendarEventClick", h.server().OnCalendarEventClick(h.ctx, ev.ID, ev.Start, ev.End))
		},
		OnSelectedDateUpdate: func(d temporal.PlainDate) {
			h.call("onSelectedDateUpdate", h.server().OnSelectedDateUpdate(h.ctx, d))
		},
		OnRender: func(app *widget.App) {
			d := app.DatePickerState.SelectedDate.Get()
			h.call("onSelectedDateUpdate", h.server().OnSelectedDateUpdate(h.ctx, d))
		},
		OnEventUpdate: func(ev model.Event) {
			h.call("onEventUpdate", h.server().OnEventUpdate(h.ctx, ev.ID, ev.Start, ev.End))
		},
		OnMouseDownDateTime: func(at time.Time) {
			if h.draw != nil {
				h.draw.DrawTimeGridEvent(at, h.drawTitle)
			}
		},
		OnMouseDownMonthGridDate: func(d temporal.PlainDate) {
			if h.draw != nil {
				h.draw.DrawMonthGridEvent(d, h.drawTitle)
			}
		},
		OnMouseDownDateGridDate: func(d temporal.PlainDate) {
			if h.draw != nil {
				h.draw.DrawDateGridEvent(d, h.drawTitle)
			}
		},
	}
	if h.adapter.variant == views.VariantResourceScheduler {
		cb.OnLazyLoadDate = func(dates []time.Time) {
			if r, ok := model.LazyLoadDayRange(dates); ok {
				h.requestResourceRange(r)
			}
		}
		cb.OnLazyLoadMonth = func(dates []time.Time) {
			if r, ok := model.LazyLoadMonthRange(dates); ok {
				h.requestResourceRange(r)
			}
		}
	}
	return cb
}

func (h *Handle) requestResourceRange(r model.Range) {
	h.call("updateResourceSchedulerRange", h.server().UpdateResourceSchedulerRange(h.ctx, r.Start, r.End))
}

// subscribeAssistant publishes one combined notification per batch in
// which the assistant's slot or collision flag changed.
func (h *Handle) subscribeAssistant(sa widget.SchedulingAssistant) {
	start, end, collision := sa.CurrentStart(), sa.CurrentEnd(), sa.HasCollision()
	unsub := signal.Combine(func() {
		h.publish(notify.SchedulingAssistantUpdated, notify.SchedulingAssistantDetail{
			CurrentStart: temporal.FormatZoned(start.Get()),
			CurrentEnd:   temporal.FormatZoned(end.Get()),
			HasCollision: collision.Get(),
		})
	}, start, end, collision)
	h.unsubscribe = append(h.unsubscribe, unsub)
}
