// Package views defines the selectable calendar views of both widget
// variants and resolves server-supplied view lists into view instances.
package views

import (
	"time"

	"sxcal/internal/model"
	"sxcal/internal/temporal"
)

// Native view names used inside the widget.
const (
	Day         = "day"
	Week        = "week"
	MonthGrid   = "month-grid"
	MonthAgenda = "month-agenda"
	List        = "list"
	Hourly      = "hourly"
	Daily       = "daily"
)

// PagingFunc moves a selected date by n paging units.
type PagingFunc func(d temporal.PlainDate, n int) temporal.PlainDate

// RangeOptions are the widget settings a view needs to compute its window.
type RangeOptions struct {
	FirstDayOfWeek time.Weekday
	// NDays is the number of days of the week view; 0 means 7.
	NDays    int
	Location *time.Location
}

// View is one selectable layout. Name is the logical factory name exchanged
// with the server, ViewName the widget's native name.
type View struct {
	Name     string
	ViewName string
	Label    string

	Paging      PagingFunc
	PagingUnits int

	rangeFn func(d temporal.PlainDate, o RangeOptions) (temporal.PlainDate, temporal.PlainDate)

	// Resources is set on resource scheduler views.
	Resources *model.ResourceConfig
}

// Range returns the visible window of the view around the selected date,
// from the first day's midnight to the last day's 23:59:59.
func (v View) Range(selected temporal.PlainDate, o RangeOptions) model.Range {
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	first, last := selected, selected
	if v.rangeFn != nil {
		first, last = v.rangeFn(selected, o)
	}
	return model.Range{
		Start: first.In(loc),
		End:   last.AddDays(1).In(loc).Add(-time.Second),
	}
}

// Factory builds a view, optionally bound to a resource configuration.
type Factory func(rc *model.ResourceConfig) View

// Resolve maps names through factories in order. Names without a factory are
// dropped.
func Resolve(names []string, factories map[string]Factory, rc *model.ResourceConfig) []View {
	out := make([]View, 0, len(names))
	for _, name := range names {
		f, ok := factories[name]
		if !ok {
			continue
		}
		out = append(out, f(rc))
	}
	return out
}

// Find returns the view whose native name is viewName.
func Find(vs []View, viewName string) (View, bool) {
	for _, v := range vs {
		if v.ViewName == viewName {
			return v, true
		}
	}
	return View{}, false
}

// NameMap builds the logical-to-native name table of a factory set.
func NameMap(factories map[string]Factory) map[string]string {
	m := make(map[string]string, len(factories))
	for name, f := range factories {
		m[name] = f(nil).ViewName
	}
	return m
}
