package adapter

import (
	"fmt"

	appLog "sxcal/internal/log"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
	"sxcal/internal/widget"
)

// Direction of a navigation step.
type Direction int

const (
	Backward Direction = -1
	Forward  Direction = 1
)

func (d Direction) String() string {
	if d == Backward {
		return "backwards"
	}
	return "forwards"
}

// ParseDirection accepts "forward(s)" and "backward(s)".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "forward", "forwards":
		return Forward, nil
	case "backward", "backwards":
		return Backward, nil
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

// Navigate pages the selected date by the active view's paging units. The
// hourly view always pages by days. A step that would leave the configured
// min/max dates is dropped. It reports whether the date changed.
func (h *Handle) Navigate(dir Direction) (bool, error) {
	ctl, ok := h.controls()
	if !ok {
		return false, fmt.Errorf("navigate: %w", widget.ErrPluginMissing)
	}
	view, ok := views.Find(h.app.Config.Views, h.app.CalendarState.View.Get())
	if !ok {
		return false, nil
	}

	page := view.Paging
	if view.ViewName == views.Hourly {
		page = func(d temporal.PlainDate, n int) temporal.PlainDate { return d.AddDays(n) }
	}
	units := view.PagingUnits
	if dir == Backward {
		units = -units
	}
	next := page(h.app.DatePickerState.SelectedDate.Get(), units)

	minDate, maxDate := h.app.Config.MinDate, h.app.Config.MaxDate
	if (dir == Forward && !maxDate.IsZero() && next.Compare(maxDate) > 0) ||
		(dir == Backward && !minDate.IsZero() && minDate.Compare(next) > 0) {
		appLog.Debug("navigation out of bounds", "direction", dir, "next", next, "container", h.container)
		return false, nil
	}

	ctl.SetDate(next)
	return true, nil
}
