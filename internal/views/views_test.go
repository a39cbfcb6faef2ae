package views

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sxcal/internal/model"
	"sxcal/internal/temporal"
)

func names(vs []View) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.ViewName)
	}
	return out
}

func TestResolve_DropsUnknownNamesInOrder(t *testing.T) {
	got := Resolve(
		[]string{"createViewMonthGrid", "createViewYear", "createViewDay", "", "createHourlyView", "createViewWeek"},
		CalendarFactories(), nil)
	assert.Equal(t, []string{MonthGrid, Day, Week}, names(got))

	assert.Empty(t, Resolve([]string{"nope"}, CalendarFactories(), nil))
	assert.Empty(t, Resolve(nil, CalendarFactories(), nil))
}

func TestResolve_BindsResourceConfig(t *testing.T) {
	rc := &model.ResourceConfig{}
	got := Resolve([]string{"createDailyView", "createHourlyView"}, ResourceFactories(), rc)
	require.Len(t, got, 2)
	assert.Same(t, rc, got[0].Resources)
	assert.Same(t, rc, got[1].Resources)
}

func TestNameMap_IsBijective(t *testing.T) {
	for _, variant := range []Variant{VariantCalendar, VariantResourceScheduler} {
		m := NameMap(Factories(variant))
		seen := map[string]bool{}
		for logical, native := range m {
			assert.NotEmpty(t, native, logical)
			assert.False(t, seen[native], "duplicate native name %s", native)
			seen[native] = true
		}
	}
	assert.Equal(t, "month-grid", NameMap(CalendarFactories())["createViewMonthGrid"])
	assert.Nil(t, Factories("unknown"))
}

func TestPaging(t *testing.T) {
	d := temporal.MustParseDate("2025-01-31")
	week := WeekView(nil)
	assert.Equal(t, temporal.MustParseDate("2025-02-07"), week.Paging(d, week.PagingUnits))

	month := MonthGridView(nil)
	assert.Equal(t, temporal.MustParseDate("2025-02-28"), month.Paging(d, month.PagingUnits))
	assert.Equal(t, temporal.MustParseDate("2024-12-31"), month.Paging(d, -month.PagingUnits))

	hourly := HourlyView(nil)
	assert.Equal(t, d, hourly.Paging(d, hourly.PagingUnits))
}

func TestRange(t *testing.T) {
	selected := temporal.MustParseDate("2025-06-04") // Wednesday
	opts := RangeOptions{FirstDayOfWeek: time.Monday, Location: time.UTC}

	r := WeekView(nil).Range(selected, opts)
	assert.Equal(t, time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 6, 8, 23, 59, 59, 0, time.UTC), r.End)

	opts.NDays = 5
	r = WeekView(nil).Range(selected, opts)
	assert.Equal(t, time.Date(2025, 6, 6, 23, 59, 59, 0, time.UTC), r.End)

	r = DayView(nil).Range(selected, opts)
	assert.Equal(t, time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC), r.Start)

	r = MonthGridView(nil).Range(selected, RangeOptions{FirstDayOfWeek: time.Monday})
	assert.Equal(t, time.Date(2025, 5, 26, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 7, 6, 23, 59, 59, 0, time.UTC), r.End)

	r = DailyView(nil).Range(selected, opts)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 6, 30, 23, 59, 59, 0, time.UTC), r.End)
}
