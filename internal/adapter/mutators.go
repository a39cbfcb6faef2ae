package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"sxcal/internal/calconfig"
	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
	"sxcal/internal/widget"
)

// The setters below pass a new value to the calendar controls. None of them
// recreates the widget. Structured values arrive as JSON.

func (h *Handle) withControls(fn func(widget.CalendarControls) error) error {
	ctl, ok := h.controls()
	if !ok {
		return fmt.Errorf("calendar controls: %w", widget.ErrPluginMissing)
	}
	return fn(ctl)
}

// SetView activates a view by its logical name. The view must be in the
// current views list.
func (h *Handle) SetView(name string) error {
	native, ok := h.adapter.nameMap[name]
	if !ok {
		return fmt.Errorf("view %q: %w", name, calconfig.ErrUnknownView)
	}
	if _, ok := views.Find(h.app.Config.Views, native); !ok {
		return fmt.Errorf("view %q not in the views list: %w", name, calconfig.ErrUnknownView)
	}
	return h.withControls(func(c widget.CalendarControls) error {
		c.SetView(native)
		return nil
	})
}

// SetDate selects an ISO date.
func (h *Handle) SetDate(date string) error {
	d, err := temporal.ParseDate(date)
	if err != nil {
		return fmt.Errorf("selected date: %w", err)
	}
	return h.withControls(func(c widget.CalendarControls) error {
		c.SetDate(d)
		return nil
	})
}

// SetFirstDayOfWeek takes 0 (Sunday) to 6 (Saturday).
func (h *Handle) SetFirstDayOfWeek(day int) error {
	return h.withControls(func(c widget.CalendarControls) error {
		return c.SetFirstDayOfWeek(day)
	})
}

// SetLocale switches the locale. Unsupported locales are logged and ignored.
func (h *Handle) SetLocale(locale string) error {
	return h.withControls(func(c widget.CalendarControls) error {
		if err := c.SetLocale(locale); err != nil {
			appLog.Error("locale not changed", err, "locale", locale, "container", h.container)
		}
		return nil
	})
}

func (h *Handle) SetTimeZone(name string) error {
	return h.withControls(func(c widget.CalendarControls) error {
		return c.SetTimeZone(name)
	})
}

// SetViews replaces the selectable views with the known names of a JSON
// list of logical names.
func (h *Handle) SetViews(raw string) error {
	names, err := decodeViewNames(raw)
	if err != nil {
		return err
	}
	vs := views.Resolve(names, h.adapter.factories, h.app.Config.Resources)
	return h.withControls(func(c widget.CalendarControls) error {
		c.SetViews(vs)
		return nil
	})
}

func (h *Handle) SetDayBoundaries(raw string) error {
	var b calconfig.DayBoundaries
	if err := decodeValue("day boundaries", raw, &b); err != nil {
		return err
	}
	return h.withControls(func(c widget.CalendarControls) error {
		c.SetDayBoundaries(b)
		return nil
	})
}

func (h *Handle) SetWeekOptions(raw string) error {
	var o calconfig.WeekOptions
	if err := decodeValue("week options", raw, &o); err != nil {
		return err
	}
	return h.withControls(func(c widget.CalendarControls) error {
		c.SetWeekOptions(o)
		return nil
	})
}

func (h *Handle) SetCalendars(raw string) error {
	cals, err := model.DecodeCalendars(raw)
	if err != nil {
		return err
	}
	return h.withControls(func(c widget.CalendarControls) error {
		c.SetCalendars(cals)
		return nil
	})
}

func (h *Handle) SetMinDate(date string) error {
	d, err := temporal.ParseDate(date)
	if err != nil {
		return fmt.Errorf("min date: %w", err)
	}
	return h.withControls(func(c widget.CalendarControls) error {
		c.SetMinDate(d)
		return nil
	})
}

func (h *Handle) SetMaxDate(date string) error {
	d, err := temporal.ParseDate(date)
	if err != nil {
		return fmt.Errorf("max date: %w", err)
	}
	return h.withControls(func(c widget.CalendarControls) error {
		c.SetMaxDate(d)
		return nil
	})
}

func (h *Handle) SetMonthGridOptions(raw string) error {
	var o calconfig.MonthGridOptions
	if err := decodeValue("month grid options", raw, &o); err != nil {
		return err
	}
	return h.withControls(func(c widget.CalendarControls) error {
		c.SetMonthGridOptions(o)
		return nil
	})
}

func decodeValue(what, raw string, v any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decode %s: %w", what, err)
	}
	return nil
}
