package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sxcal/internal/signal"
	"sxcal/internal/temporal"
)

func mustZone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func TestClassifyAllDay(t *testing.T) {
	loc := mustZone(t, "Europe/Berlin")
	ev := Event{
		ID:    "1",
		Start: temporal.ZonedValue(time.Date(2025, 6, 1, 0, 0, 0, 0, loc)),
		End:   temporal.ZonedValue(time.Date(2025, 6, 1, 23, 59, 0, 0, loc)),
	}
	day := temporal.MustParseDate("2025-06-01")

	for _, view := range []string{"day", "week"} {
		got := ClassifyAllDay(ev, view)
		assert.True(t, got.Start.IsDate(), view)
		assert.Equal(t, day, got.Start.Date(), view)
		assert.Equal(t, day, got.End.Date(), view)
	}

	for _, view := range []string{"month-grid", "month-agenda", "list", ""} {
		got := ClassifyAllDay(ev, view)
		assert.True(t, got.Start.Equal(ev.Start), view)
		assert.True(t, got.End.Equal(ev.End), view)
	}
}

func TestClassifyAllDay_NotFullDay(t *testing.T) {
	loc := time.UTC
	cases := map[string]Event{
		"ends early": {
			Start: temporal.ZonedValue(time.Date(2025, 6, 1, 0, 0, 0, 0, loc)),
			End:   temporal.ZonedValue(time.Date(2025, 6, 1, 23, 0, 0, 0, loc)),
		},
		"spans two days": {
			Start: temporal.ZonedValue(time.Date(2025, 6, 1, 0, 0, 0, 0, loc)),
			End:   temporal.ZonedValue(time.Date(2025, 6, 2, 23, 59, 0, 0, loc)),
		},
		"already dates": {
			Start: temporal.DateValue(temporal.MustParseDate("2025-06-01")),
			End:   temporal.DateValue(temporal.MustParseDate("2025-06-01")),
		},
	}
	for name, ev := range cases {
		got := ClassifyAllDay(ev, "week")
		assert.True(t, got.Start.Equal(ev.Start), name)
		assert.True(t, got.End.Equal(ev.End), name)
	}
}

func TestEvent_JSONKeepsUnknownFields(t *testing.T) {
	in := `{"id":"a","start":"2025-06-01 09:00","end":"2025-06-01 10:00","title":"Standup",` +
		`"_options":{"disableDND":true},"priority":3,"tags":["x"]}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(in), &ev))
	assert.Equal(t, "a", ev.ID)
	assert.Equal(t, "Standup", ev.Title)
	assert.True(t, ev.DNDDisabled())
	assert.False(t, ev.ResizeDisabled())
	assert.Equal(t, temporal.KindRaw, ev.Start.Kind())
	assert.JSONEq(t, `3`, string(ev.Extra["priority"]))

	ev = ev.Normalize(time.UTC)
	require.True(t, ev.Start.IsZoned())
	assert.Equal(t, 9, ev.Start.Time().Hour())

	out, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"a","start":"2025-06-01T09:00:00Z","end":"2025-06-01T10:00:00Z",`+
		`"title":"Standup","_options":{"disableDND":true},"priority":3,"tags":["x"]}`, string(out))
}

func TestEvent_NormalizeKeepsBadBoundary(t *testing.T) {
	ev := Event{ID: "x", Start: temporal.RawValue("not a date"), End: temporal.RawValue("2025-06-01T10:00")}
	got := ev.Normalize(time.UTC)
	assert.Equal(t, temporal.KindRaw, got.Start.Kind())
	assert.Equal(t, "not a date", got.Start.Raw())
	assert.True(t, got.End.IsZoned())
}

func TestEvent_PinDoesNotAlias(t *testing.T) {
	ev := Event{ID: "a", Options: &EventOptions{AdditionalClasses: []string{"c"}}}
	pinned := ev.Pin()
	assert.True(t, pinned.DNDDisabled())
	assert.True(t, pinned.ResizeDisabled())
	assert.False(t, ev.DNDDisabled())
}

func TestEvent_Overlaps(t *testing.T) {
	day := temporal.MustParseDate("2025-06-02")
	ev := Event{Start: temporal.DateValue(day), End: temporal.DateValue(day)}
	start := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	assert.True(t, ev.Overlaps(start, start.Add(time.Hour), time.UTC))
	assert.False(t, ev.Overlaps(start.AddDate(0, 0, 1), start.AddDate(0, 0, 2), time.UTC))
}

func TestDecodeCalendars(t *testing.T) {
	obj := `{"work":{"colorName":"work","lightColors":{"main":"#1c7df9","container":"#d2e7ff","onContainer":"#002859"}}}`
	cals, err := DecodeCalendars(obj)
	require.NoError(t, err)
	require.Contains(t, cals, "work")
	assert.Equal(t, "work", cals["work"].ID)
	assert.Equal(t, "#1c7df9", cals["work"].LightColors.Main)

	arr := `[{"id":"home","colorName":"home"}]`
	cals, err = DecodeCalendars(arr)
	require.NoError(t, err)
	assert.Equal(t, "home", cals["home"].ColorName)

	cals, err = DecodeCalendars("")
	require.NoError(t, err)
	assert.Empty(t, cals)

	_, err = DecodeCalendars(`[{"colorName":"x"}]`)
	assert.Error(t, err)
}

func TestDecodeResourceConfig(t *testing.T) {
	b := signal.NewBatcher()
	raw := `{"hourWidth":100,"resources":[{"id":"r1","label":"Room 1","isOpen":false,` +
		`"resources":[{"id":"r1a"}]}],"dragAndDrop":true,"resize":"",` +
		`"initialHours":"2025-06-01 08:00,2025-06-01 11:00","initialDays":"2025-06-01, 2025-06-03"}`

	rc, err := DecodeResourceConfig(raw, time.UTC, b)
	require.NoError(t, err)
	require.NotNil(t, rc)
	assert.Equal(t, 100, *rc.HourWidth)
	assert.Nil(t, rc.DayWidth)
	assert.True(t, *rc.DragAndDrop)
	assert.Len(t, rc.InitialHours, 4)
	assert.Equal(t, 11, rc.InitialHours[3].Hour())
	assert.Equal(t, []temporal.PlainDate{
		temporal.MustParseDate("2025-06-01"),
		temporal.MustParseDate("2025-06-02"),
		temporal.MustParseDate("2025-06-03"),
	}, rc.InitialDays)

	r1 := FindResource(rc.Resources, "r1")
	require.NotNil(t, r1)
	assert.False(t, r1.IsOpen.Get())
	child := FindResource(rc.Resources, "r1a")
	require.NotNil(t, child)
	assert.True(t, child.IsOpen.Get())

	var toggled []bool
	r1.IsOpen.Subscribe(func(v bool) { toggled = append(toggled, v) })
	r1.IsOpen.Set(true)
	assert.Equal(t, []bool{true}, toggled)

	out, err := json.Marshal(r1)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"isOpen":true`)
}

func TestDecodeResourceConfig_Empty(t *testing.T) {
	for _, raw := range []string{"", "{}", "null"} {
		rc, err := DecodeResourceConfig(raw, time.UTC, nil)
		require.NoError(t, err)
		assert.Nil(t, rc)
	}
	_, err := DecodeResourceConfig(`{"initialDays":"2025-06-01"}`, time.UTC, nil)
	assert.Error(t, err)
}

func TestLazyLoadRanges(t *testing.T) {
	d := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)

	r, ok := LazyLoadDayRange([]time.Time{d})
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 10, 23, 59, 59, 999_000_000, time.UTC), r.End)

	r, ok = LazyLoadMonthRange([]time.Time{d})
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 2, 28, 23, 59, 59, 999_000_000, time.UTC), r.End)

	last := d.AddDate(0, 0, 5)
	r, ok = LazyLoadMonthRange([]time.Time{d, last})
	require.True(t, ok)
	assert.Equal(t, last, r.End)

	_, ok = LazyLoadDayRange(nil)
	assert.False(t, ok)
}

func TestOccurrence_AllDayEventEndsOnLastDate(t *testing.T) {
	o := Occurrence{
		UID:         "u1",
		InstanceKey: "k",
		AllDay:      true,
		Start:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	ev := o.Event()
	assert.Equal(t, "u1@k", ev.ID)
	assert.Equal(t, temporal.MustParseDate("2025-06-01"), ev.End.Date())
}
