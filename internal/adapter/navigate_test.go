package adapter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sxcal/internal/notify"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
)

func TestNavigate_StaysWithinBounds(t *testing.T) {
	minDate := temporal.MustParseDate("2025-05-20")
	maxDate := temporal.MustParseDate("2025-08-10")

	tests := []struct {
		view string
		unit int
	}{
		{"createViewDay", 1},
		{"createViewWeek", 7},
		{"createViewMonthGrid", 31},
	}
	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			f := attach(t, views.VariantCalendar, CreateRequest{
				Views:       calendarViews,
				Config:      `{"selectedDate":"2025-06-04","minDate":"2025-05-20","maxDate":"2025-08-10","timezone":"UTC"}`,
				CurrentView: tt.view,
			})
			h := f.handle

			moved := true
			for i := 0; i < 120 && moved; i++ {
				var err error
				moved, err = h.Navigate(Backward)
				require.NoError(t, err)
				assert.False(t, h.SelectedDate().Before(minDate), "stepped below min date: %s", h.SelectedDate())
			}
			assert.False(t, moved, "navigation stops at the min date")
			assert.Less(t, daysBetween(minDate, h.SelectedDate()), tt.unit)

			moved = true
			for i := 0; i < 120 && moved; i++ {
				var err error
				moved, err = h.Navigate(Forward)
				require.NoError(t, err)
				assert.False(t, h.SelectedDate().After(maxDate), "stepped past max date: %s", h.SelectedDate())
			}
			assert.False(t, moved)
			assert.Less(t, daysBetween(h.SelectedDate(), maxDate), tt.unit)
		})
	}
}

func daysBetween(a, b temporal.PlainDate) int {
	return int(b.In(time.UTC).Sub(a.In(time.UTC)).Hours() / 24)
}

func TestNavigate_NotifiesSelectedDate(t *testing.T) {
	f := attach(t, views.VariantCalendar, CreateRequest{Views: calendarViews, Config: weekConfig("")})

	moved, err := f.handle.Navigate(Forward)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "2025-06-11", f.handle.SelectedDate().String())
	assert.Equal(t, "2025-06-11", f.server.selected[len(f.server.selected)-1].String())

	moved, err = f.handle.Navigate(Backward)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, "2025-06-04", f.handle.SelectedDate().String())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("forwards")
	require.NoError(t, err)
	assert.Equal(t, Forward, d)
	d, err = ParseDirection("backward")
	require.NoError(t, err)
	assert.Equal(t, Backward, d)
	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

const (
	resourceViews  = `["createHourlyView","createDailyView"]`
	resourceConfig = `{"hourWidth":60,"resources":[{"id":"room-1","label":"Room 1","isOpen":false},{"id":"room-2","label":"Room 2"}],"initialDays":"2025-06-01,2025-06-07","dragAndDrop":""}`
)

func TestNavigate_HourlyPagesByDay(t *testing.T) {
	f := attach(t, views.VariantResourceScheduler, CreateRequest{
		Views:          resourceViews,
		Config:         `{"selectedDate":"2025-06-04","timezone":"UTC"}`,
		ResourceConfig: resourceConfig,
	})
	h := f.handle
	require.Equal(t, views.Hourly, h.View())

	_, err := h.Navigate(Forward)
	require.NoError(t, err)
	assert.Equal(t, "2025-06-05", h.SelectedDate().String())

	require.NoError(t, h.SetView("createDailyView"))
	_, err = h.Navigate(Forward)
	require.NoError(t, err)
	assert.Equal(t, "2025-07-05", h.SelectedDate().String())

	rc := h.app.Config.Resources
	require.NotNil(t, rc)
	assert.Nil(t, rc.DragAndDrop, "empty strings leave options unset")
	assert.Len(t, rc.InitialDays, 7)
	require.Len(t, rc.Resources, 2)
	assert.False(t, rc.Resources[0].IsOpen.Get())
	assert.True(t, rc.Resources[1].IsOpen.Get())
}

func TestLazyLoad_RequestsResourceRange(t *testing.T) {
	f := attach(t, views.VariantResourceScheduler, CreateRequest{
		Views:          resourceViews,
		Config:         `{"selectedDate":"2025-06-04","timezone":"UTC"}`,
		ResourceConfig: resourceConfig,
	})
	cal := f.handle.Calendar()
	day := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cal.ScrollResources([]time.Time{day}))
	require.NoError(t, cal.ScrollResources([]time.Time{day, day.AddDate(0, 0, 3)}))
	require.NoError(t, cal.ScrollResources(nil))

	require.NoError(t, f.handle.SetView("createDailyView"))
	require.NoError(t, cal.ScrollResources([]time.Time{day}))

	require.Len(t, f.server.resourceRanges, 3)
	assert.Equal(t, time.Date(2025, 6, 4, 23, 59, 59, 999_000_000, time.UTC), f.server.resourceRanges[0].End)
	assert.Equal(t, day.AddDate(0, 0, 3), f.server.resourceRanges[1].End)
	assert.Equal(t, time.Date(2025, 6, 30, 23, 59, 59, 999_000_000, time.UTC), f.server.resourceRanges[2].End)
}

func TestLazyLoad_NotWiredForResourceView(t *testing.T) {
	f := attach(t, views.VariantResourceView, CreateRequest{
		Views:                     resourceViews,
		Config:                    `{"selectedDate":"2025-06-04","timezone":"UTC"}`,
		ResourceConfig:            resourceConfig,
		SchedulingAssistantConfig: `{"initialStart":"2025-06-04 09:00","initialEnd":"2025-06-04 10:00"}`,
	})
	require.NoError(t, f.handle.Calendar().ScrollResources([]time.Time{time.Now()}))
	assert.Empty(t, f.server.resourceRanges)
	assert.Error(t, f.handle.Calendar().MoveSchedulingSlot(time.Now(), time.Now().Add(time.Hour)))
}

func TestSchedulingAssistant_OneNotificationPerTick(t *testing.T) {
	f := attach(t, views.VariantResourceScheduler, CreateRequest{
		Views:                     resourceViews,
		Config:                    `{"selectedDate":"2025-06-04","timezone":"UTC"}`,
		ResourceConfig:            resourceConfig,
		SchedulingAssistantConfig: `{"initialStart":"2025-06-04 09:00","initialEnd":"2025-06-04 10:00"}`,
	})
	h := f.handle
	require.NoError(t, h.OnUpdateRange(`[{"id":"busy","start":"2025-06-04 11:00","end":"2025-06-04 12:00","resourceId":"room-1"}]`,
		"2025-06-04 00:00", "2025-06-04 23:59"))
	assert.Empty(t, f.notes.only(notify.SchedulingAssistantUpdated), "collision flag did not change")

	// Start, end and collision all change within one interaction.
	start := time.Date(2025, 6, 4, 11, 30, 0, 0, time.UTC)
	require.NoError(t, h.Calendar().MoveSchedulingSlot(start, start.Add(time.Hour)))

	got := f.notes.only(notify.SchedulingAssistantUpdated)
	require.Len(t, got, 1)
	assert.Equal(t, notify.SchedulingAssistantDetail{
		CurrentStart: "2025-06-04T11:30:00Z",
		CurrentEnd:   "2025-06-04T12:30:00Z",
		HasCollision: true,
	}, got[0].Detail)

	// The same slot given in another zone is not a change.
	tokyo := time.FixedZone("JST", 9*60*60)
	require.NoError(t, h.Calendar().MoveSchedulingSlot(start.In(tokyo), start.Add(time.Hour).In(tokyo)))
	require.Len(t, f.notes.only(notify.SchedulingAssistantUpdated), 1)

	// Removing the event clears the collision: one more notification.
	require.NoError(t, h.RemoveEvent("busy"))
	got = f.notes.only(notify.SchedulingAssistantUpdated)
	require.Len(t, got, 2)
	assert.False(t, got[1].Detail.(notify.SchedulingAssistantDetail).HasCollision)
}

func TestSchedulingAssistant_NeedsResourceConfig(t *testing.T) {
	f := attach(t, views.VariantResourceScheduler, CreateRequest{
		Views:                     resourceViews,
		Config:                    `{"selectedDate":"2025-06-04","timezone":"UTC"}`,
		ResourceConfig:            "{}",
		SchedulingAssistantConfig: `{"initialStart":"2025-06-04 09:00","initialEnd":"2025-06-04 10:00"}`,
	})
	assert.Error(t, f.handle.Calendar().MoveSchedulingSlot(time.Now(), time.Now().Add(time.Hour)))
}
