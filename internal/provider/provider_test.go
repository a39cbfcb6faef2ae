package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sxcal/internal/ics"
	"sxcal/internal/model"
	"sxcal/internal/temporal"
)

const feed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//sxcal//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250602T090000Z\r\n" +
	"DTEND:20250602T091500Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"RRULE:FREQ=DAILY;COUNT=5\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func zoned(d, hm string) temporal.Value {
	t, err := temporal.ToZoned(d+" "+hm, time.UTC)
	if err != nil {
		panic(err)
	}
	return temporal.ZonedValue(t)
}

func day(d int) time.Time { return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC) }

func TestStore_PutMoveDelete(t *testing.T) {
	s := New(Options{})

	ev := s.Put(model.Event{Title: "Review", Start: zoned("2025-06-04", "10:00"), End: zoned("2025-06-04", "11:00")})
	require.NotEmpty(t, ev.ID, "missing ids are generated")
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Move(ev.ID, zoned("2025-06-05", "10:00"), zoned("2025-06-05", "12:00")))
	got, ok := s.Get(ev.ID)
	require.True(t, ok)
	assert.Equal(t, "2025-06-05T12:00:00Z", temporal.FormatZoned(got.End.At(time.UTC)))

	err := s.Move("missing", ev.Start, ev.End)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.True(t, s.Delete(ev.ID))
	assert.False(t, s.Delete(ev.ID))
}

func TestStore_RangeFiltersStoredEvents(t *testing.T) {
	s := New(Options{})
	s.Put(model.Event{ID: "in", Start: zoned("2025-06-04", "10:00"), End: zoned("2025-06-04", "11:00")})
	s.Put(model.Event{ID: "out", Start: zoned("2025-07-04", "10:00"), End: zoned("2025-07-04", "11:00")})
	s.Put(model.Event{ID: "early", Start: zoned("2025-06-03", "09:00"), End: zoned("2025-06-03", "09:30")})
	s.Put(model.Event{ID: "series", RRule: "FREQ=WEEKLY", Start: zoned("2025-01-01", "08:00"), End: zoned("2025-01-01", "09:00")})

	got, err := s.Range(day(2), day(9), nil)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, ev := range got {
		ids = append(ids, ev.ID)
	}
	assert.Equal(t, []string{"series", "early", "in"}, ids, "sorted by start, series always included")

	_, err = s.Range(day(9), day(2), nil)
	assert.Error(t, err)
}

func TestStore_RefreshMergesFeeds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(feed))
	}))
	defer srv.Close()

	s := New(Options{
		Sources:  []ics.Source{{ID: "team", URL: srv.URL}},
		CacheDir: t.TempDir(),
	})
	assert.True(t, s.Synced().IsZero())
	require.NoError(t, s.Refresh(context.Background()))
	assert.False(t, s.Synced().IsZero())

	s.Put(model.Event{ID: "local", Start: zoned("2025-06-04", "10:00"), End: zoned("2025-06-04", "11:00")})

	got, err := s.Range(day(3), day(5), time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "local", got[0].ID)

	for _, ev := range got[1:] {
		assert.Equal(t, "team", ev.CalendarID)
		assert.True(t, ev.DNDDisabled(), "feed events are read-only")
		assert.Equal(t, "Standup", ev.Title)
	}
}

func TestStore_StartRejectsBadSchedule(t *testing.T) {
	s := New(Options{
		Sources:  []ics.Source{{ID: "team", URL: "http://127.0.0.1:1/feed.ics"}},
		CacheDir: t.TempDir(),
		Refresh:  "not a cron spec",
	})
	err := s.Start(context.Background())
	assert.Error(t, err)
	s.Stop()
}

func TestStore_StartWithoutFeeds(t *testing.T) {
	s := New(Options{Refresh: "*/15 * * * *"})
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}

func TestStore_PutNormalizesRawBoundaries(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	s := New(Options{Location: berlin})

	ev := s.Put(model.Event{ID: "raw", Start: temporal.RawValue("2025-06-04 10:00"), End: temporal.RawValue("2025-06-04 11:00")})
	require.True(t, ev.Start.IsZoned())
	assert.Equal(t, "2025-06-04T10:00:00+02:00", ev.Start.String())
}

func TestStore_Collides(t *testing.T) {
	s := New(Options{})
	s.Put(model.Event{ID: "busy", Start: zoned("2025-06-04", "10:00"), End: zoned("2025-06-04", "11:00")})
	s.Put(model.Event{ID: "series", RRule: "FREQ=DAILY", Start: zoned("2025-06-04", "12:00"), End: zoned("2025-06-04", "13:00")})

	at := func(h int) time.Time { return time.Date(2025, 6, 4, h, 0, 0, 0, time.UTC) }
	assert.True(t, s.Collides("", at(10), at(12), nil))
	assert.False(t, s.Collides("busy", at(10), at(12), nil), "the event itself is skipped")
	assert.False(t, s.Collides("", at(11), at(12), nil), "touching is not overlapping")
	assert.False(t, s.Collides("", at(12), at(13), nil), "series are ignored")
}
