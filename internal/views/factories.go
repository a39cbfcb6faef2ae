package views

import (
	"sxcal/internal/model"
	"sxcal/internal/temporal"
)

// Variant selects the view set of an adapter.
type Variant string

const (
	VariantCalendar          Variant = "calendar"
	VariantResourceScheduler Variant = "resource-scheduler"
	// VariantResourceView shows resources read-only: no lazy loading and no
	// scheduling assistant.
	VariantResourceView Variant = "resource-view"
)

func addDays(d temporal.PlainDate, n int) temporal.PlainDate   { return d.AddDays(n) }
func addMonths(d temporal.PlainDate, n int) temporal.PlainDate { return d.AddMonths(n) }

// addHours pages the hourly scheduler, which scrolls within the selected day.
// Whole days are only crossed every 24 units.
func addHours(d temporal.PlainDate, n int) temporal.PlainDate { return d.AddDays(n / 24) }

func startOfWeek(d temporal.PlainDate, first int) temporal.PlainDate {
	diff := (int(d.Weekday()) - first + 7) % 7
	return d.AddDays(-diff)
}

func monthBounds(d temporal.PlainDate) (temporal.PlainDate, temporal.PlainDate) {
	first := temporal.PlainDate{Year: d.Year, Month: d.Month, Day: 1}
	return first, first.AddMonths(1).AddDays(-1)
}

func DayView(*model.ResourceConfig) View {
	return View{Name: "createViewDay", ViewName: Day, Label: "Day", Paging: addDays, PagingUnits: 1}
}

func WeekView(*model.ResourceConfig) View {
	return View{
		Name: "createViewWeek", ViewName: Week, Label: "Week",
		Paging: addDays, PagingUnits: 7,
		rangeFn: func(d temporal.PlainDate, o RangeOptions) (temporal.PlainDate, temporal.PlainDate) {
			n := o.NDays
			if n <= 0 || n > 7 {
				n = 7
			}
			start := startOfWeek(d, int(o.FirstDayOfWeek))
			return start, start.AddDays(n - 1)
		},
	}
}

// MonthGridView covers whole weeks around the selected month.
func MonthGridView(*model.ResourceConfig) View {
	return View{
		Name: "createViewMonthGrid", ViewName: MonthGrid, Label: "Month",
		Paging: addMonths, PagingUnits: 1,
		rangeFn: func(d temporal.PlainDate, o RangeOptions) (temporal.PlainDate, temporal.PlainDate) {
			first, last := monthBounds(d)
			start := startOfWeek(first, int(o.FirstDayOfWeek))
			end := startOfWeek(last, int(o.FirstDayOfWeek)).AddDays(6)
			return start, end
		},
	}
}

func MonthAgendaView(rc *model.ResourceConfig) View {
	v := MonthGridView(rc)
	v.Name, v.ViewName, v.Label = "createViewMonthAgenda", MonthAgenda, "Month"
	return v
}

// ListView lists the events of the selected week.
func ListView(rc *model.ResourceConfig) View {
	v := WeekView(rc)
	v.Name, v.ViewName, v.Label = "createViewList", List, "List"
	return v
}

func HourlyView(rc *model.ResourceConfig) View {
	return View{
		Name: "createHourlyView", ViewName: Hourly, Label: "Hourly",
		Paging: addHours, PagingUnits: 1,
		Resources: rc,
	}
}

func DailyView(rc *model.ResourceConfig) View {
	return View{
		Name: "createDailyView", ViewName: Daily, Label: "Daily",
		Paging: addMonths, PagingUnits: 1,
		rangeFn: func(d temporal.PlainDate, _ RangeOptions) (temporal.PlainDate, temporal.PlainDate) {
			return monthBounds(d)
		},
		Resources: rc,
	}
}

// CalendarFactories is the view set of the standard calendar.
func CalendarFactories() map[string]Factory {
	return map[string]Factory{
		"createViewDay":         DayView,
		"createViewWeek":        WeekView,
		"createViewMonthGrid":   MonthGridView,
		"createViewMonthAgenda": MonthAgendaView,
		"createViewList":        ListView,
	}
}

// ResourceFactories is the view set of the resource scheduler.
func ResourceFactories() map[string]Factory {
	return map[string]Factory{
		"createHourlyView": HourlyView,
		"createDailyView":  DailyView,
	}
}

// Factories returns the view set of a variant, or nil if it is unknown.
func Factories(v Variant) map[string]Factory {
	switch v {
	case VariantCalendar:
		return CalendarFactories()
	case VariantResourceScheduler, VariantResourceView:
		return ResourceFactories()
	}
	return nil
}
