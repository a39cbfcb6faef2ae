package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sxcal/internal/model"
	"sxcal/internal/temporal"
)

const weeklyFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//sxcal//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250602T090000Z\r\n" +
	"DTEND:20250602T091500Z\r\n" +
	"SUMMARY:Standup\r\n" +
	"RRULE:FREQ=DAILY;COUNT=5\r\n" +
	"EXDATE:20250604T090000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"RECURRENCE-ID:20250605T090000Z\r\n" +
	"DTSTART:20250605T100000Z\r\n" +
	"DTEND:20250605T101500Z\r\n" +
	"SUMMARY:Standup (moved)\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20250603\r\n" +
	"DTEND;VALUE=DATE:20250604\r\n" +
	"SUMMARY:Holiday\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"DTSTAMP:20250101T000000Z\r\n" +
	"DTSTART:20250603T120000Z\r\n" +
	"SUMMARY:No UID\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseICS(t *testing.T) {
	events, err := ParseICS(Source{ID: "feed"}, []byte(weeklyFeed), time.UTC)
	require.NoError(t, err)
	require.Len(t, events, 3, "event without UID is skipped")

	assert.Equal(t, "FREQ=DAILY;COUNT=5", events[0].RawRRule)
	assert.Len(t, events[0].ExDates, 1)
	assert.True(t, events[1].IsOverride)
	assert.True(t, events[2].AllDay)

	_, err = ParseICS(Source{ID: "feed"}, nil, time.UTC)
	assert.Error(t, err)
}

func TestExpandOccurrences(t *testing.T) {
	events, err := ParseICS(Source{ID: "feed"}, []byte(weeklyFeed), time.UTC)
	require.NoError(t, err)

	res, err := ExpandOccurrences(events, ExpandConfig{
		DisplayLocation: time.UTC,
		RangeStart:      time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		RangeEnd:        time.Date(2025, 6, 8, 23, 59, 59, 0, time.UTC),
	})
	require.NoError(t, err)

	var titles []string
	for _, o := range res.Occurrences {
		titles = append(titles, o.Start.Format("01-02 15:04")+" "+o.Summary)
	}
	assert.Equal(t, []string{
		"06-02 09:00 Standup",
		"06-03 00:00 Holiday",
		"06-03 09:00 Standup",
		"06-05 10:00 Standup (moved)",
		"06-06 09:00 Standup",
	}, titles)

	_, err = ExpandOccurrences(events, ExpandConfig{
		RangeStart: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		RangeEnd:   time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.Error(t, err)
}

func TestExpandEvent(t *testing.T) {
	ev := model.Event{
		ID:         "gym",
		Title:      "Gym",
		CalendarID: "personal",
		Start:      temporal.ZonedValue(time.Date(2025, 6, 2, 18, 0, 0, 0, time.UTC)),
		End:        temporal.ZonedValue(time.Date(2025, 6, 2, 19, 0, 0, 0, time.UTC)),
		RRule:      "FREQ=WEEKLY;BYDAY=MO,WE",
		ExDates:    []string{"2025-06-04 18:00"},
	}

	got, err := ExpandEvent(ev, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 14, 23, 59, 59, 0, time.UTC), time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, inst := range got {
		assert.True(t, strings.HasPrefix(inst.ID, "gym@"))
		assert.Equal(t, "personal", inst.CalendarID)
		assert.Empty(t, inst.RRule)
	}
	assert.Equal(t, 9, got[1].Start.Time().Day())

	_, err = ExpandEvent(model.Event{ID: "plain"}, time.Time{}, time.Time{}, nil)
	assert.Error(t, err)
}

func TestExpandEvent_AllDay(t *testing.T) {
	d := temporal.MustParseDate("2025-06-02")
	ev := model.Event{
		ID:    "trip",
		Start: temporal.DateValue(d),
		End:   temporal.DateValue(d.AddDays(1)),
		RRule: "FREQ=WEEKLY;COUNT=2",
	}
	got, err := ExpandEvent(ev, d.In(time.UTC), d.AddDays(13).In(time.UTC), time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, temporal.MustParseDate("2025-06-09"), got[1].Start.Date())
	assert.Equal(t, temporal.MustParseDate("2025-06-10"), got[1].End.Date())
}

func TestFetcher_UsesValidatorsAndCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(weeklyFeed))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir(), time.Second)
	src := Source{ID: "team", URL: srv.URL + "/team.ics?token=secret"}

	first, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, 2, hits)

	srv.Close()
	third, err := f.FetchOne(context.Background(), src)
	require.NoError(t, err, "falls back to the cached body")
	assert.True(t, third.FromCache)

	results, errs := f.FetchAll(context.Background(), []Source{{ID: "empty"}})
	assert.Empty(t, results)
	assert.Len(t, errs, 1)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://cal.example.com/...(redacted)", redactURL("https://cal.example.com/p/x.ics?token=1"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
