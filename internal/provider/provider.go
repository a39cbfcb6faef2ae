// Package provider is the host's event source. It keeps events created
// through the calendar in memory and merges the occurrences of subscribed
// iCalendar feeds into every range reply.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"sxcal/internal/ics"
	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/temporal"
)

var ErrNotFound = errors.New("event not found")

// feedEventCap bounds the occurrences one feed event may produce per range.
const feedEventCap = 2000

// Options configure a Store.
type Options struct {
	Location *time.Location
	Sources  []ics.Source
	CacheDir string
	// Refresh is a cron spec for re-fetching the feeds. Empty disables the
	// schedule; Refresh can still be called directly.
	Refresh string
	// FetchTimeout per feed request. Zero uses the fetcher default.
	FetchTimeout time.Duration
}

// Store is safe for concurrent use.
type Store struct {
	loc     *time.Location
	sources []ics.Source
	fetcher *ics.Fetcher
	spec    string

	mu     sync.RWMutex
	events map[string]model.Event
	feeds  []ics.ParsedEvent
	synced time.Time

	cron *cron.Cron
}

func New(opts Options) *Store {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Store{
		loc:     loc,
		sources: opts.Sources,
		fetcher: ics.NewFetcher(opts.CacheDir, opts.FetchTimeout),
		spec:    opts.Refresh,
		events:  make(map[string]model.Event),
	}
}

// Location is the zone range replies are rendered in.
func (s *Store) Location() *time.Location { return s.loc }

// Put stores ev and returns it. An event without id gets a new one; raw
// boundaries are read as wall-clock times in the store's zone.
func (s *Store) Put(ev model.Event) model.Event {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	ev = ev.Clone().Normalize(s.loc)
	s.mu.Lock()
	s.events[ev.ID] = ev
	s.mu.Unlock()
	return ev
}

func (s *Store) Get(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ev, ok := s.events[id]
	if !ok {
		return model.Event{}, false
	}
	return ev.Clone(), true
}

// Move changes the boundaries of a stored event.
func (s *Store) Move(id string, start, end temporal.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	ev.Start, ev.End = start, end
	s.events[id] = ev
	return nil
}

func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return false
	}
	delete(s.events, id)
	return true
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

// Collides reports whether a stored single event overlaps [start, end).
// Series and the event with id skip are ignored.
func (s *Store) Collides(skip string, start, end time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = s.loc
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, ev := range s.events {
		if id == skip || ev.RRule != "" {
			continue
		}
		if ev.Overlaps(start, end, loc) {
			return true
		}
	}
	return false
}

// Range returns the events to show for [start, end] in loc: stored events
// that overlap the range, every stored series (expanded by the calendar
// itself) and the feed occurrences inside the range. Feed occurrences are
// read-only.
func (s *Store) Range(start, end time.Time, loc *time.Location) ([]model.Event, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("range end %s before start %s", end, start)
	}
	if loc == nil {
		loc = s.loc
	}

	s.mu.RLock()
	out := make([]model.Event, 0, len(s.events))
	for _, ev := range s.events {
		if ev.RRule != "" || ev.Overlaps(start, end, loc) {
			out = append(out, ev.Clone())
		}
	}
	feeds := s.feeds
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.At(loc).Before(out[j].Start.At(loc))
	})

	if len(feeds) == 0 {
		return out, nil
	}
	res, err := ics.ExpandOccurrences(feeds, ics.ExpandConfig{
		DisplayLocation:        loc,
		RangeStart:             start,
		RangeEnd:               end,
		MaxOccurrencesPerEvent: feedEventCap,
	})
	if err != nil {
		return nil, fmt.Errorf("expand feeds: %w", err)
	}
	if len(res.TruncatedEvents) > 0 {
		appLog.Info("feed occurrences truncated", "uids", res.TruncatedEvents)
	}
	for _, occ := range res.Occurrences {
		ev := occ.Event()
		ev.CalendarID = occ.SourceID
		out = append(out, ev.Pin())
	}
	return out, nil
}

// Refresh fetches and parses every feed. A feed that fails keeps its last
// cached body when the fetcher has one; parse failures drop that feed only.
func (s *Store) Refresh(ctx context.Context) error {
	if len(s.sources) == 0 {
		return nil
	}
	results, errs := s.fetcher.FetchAll(ctx, s.sources)

	parsed := make([]ics.ParsedEvent, 0)
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body, s.loc)
		if err != nil {
			appLog.Error("feed parse failed", err, "id", res.Source.ID)
			errs = append(errs, fmt.Errorf("feed %s: %w", res.Source.ID, err))
			continue
		}
		parsed = append(parsed, events...)
	}

	s.mu.Lock()
	s.feeds = parsed
	s.synced = time.Now()
	s.mu.Unlock()

	appLog.Info("feeds refreshed", "sources", len(s.sources), "events", len(parsed), "errors", len(errs))
	return errors.Join(errs...)
}

// Synced is the time of the last Refresh.
func (s *Store) Synced() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.synced
}

// Start runs a first refresh and then follows the refresh schedule until
// Stop. A failing first refresh is logged, not returned.
func (s *Store) Start(ctx context.Context) error {
	if err := s.Refresh(ctx); err != nil {
		appLog.Error("initial feed refresh failed", err)
	}
	if s.spec == "" || len(s.sources) == 0 {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(s.spec, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Error("scheduled feed refresh failed", err)
		}
	})
	if err != nil {
		return fmt.Errorf("refresh schedule %q: %w", s.spec, err)
	}
	c.Start()
	s.cron = c
	appLog.Info("feed refresh scheduled", "spec", s.spec)
	return nil
}

// Stop ends the refresh schedule and waits for a running refresh.
func (s *Store) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
