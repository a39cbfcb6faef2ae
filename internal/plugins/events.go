package plugins

import (
	"sxcal/internal/model"
	"sxcal/internal/widget"
)

// EventsService edits the calendar's events. Events carrying a recurrence
// rule are handed to the recurrence plugin when one is installed, which
// keeps the series and inserts its instances for the visible range.
type EventsService struct {
	app        *widget.App
	recurrence *Recurrence
}

func NewEventsService() *EventsService { return &EventsService{} }

func (*EventsService) Kind() widget.PluginKind { return widget.PluginEventsService }

func (s *EventsService) Install(app *widget.App) {
	s.app = app
	if p, ok := app.Plugin(widget.PluginEventRecurrence); ok {
		s.recurrence, _ = p.(*Recurrence)
	}
}

func (s *EventsService) recurring(ev model.Event) bool {
	return s.recurrence != nil && ev.RRule != ""
}

// Add inserts ev or replaces the event with the same id.
func (s *EventsService) Add(ev model.Event) {
	if s.recurring(ev) {
		s.recurrence.track(ev)
		return
	}
	s.app.Events.Add(ev)
}

// Get returns a stored event or, for a recurring series, the series itself.
func (s *EventsService) Get(id string) (model.Event, bool) {
	if ev, ok := s.app.Events.Get(id); ok {
		return ev, true
	}
	if s.recurrence != nil {
		return s.recurrence.series(id)
	}
	return model.Event{}, false
}

func (s *EventsService) GetAll() []model.Event { return s.app.Events.GetAll() }

func (s *EventsService) Remove(id string) bool {
	if s.recurrence != nil && s.recurrence.untrack(id) {
		return true
	}
	return s.app.Events.Remove(id)
}

func (s *EventsService) Update(ev model.Event) error {
	if s.recurrence != nil {
		if _, tracked := s.recurrence.series(ev.ID); tracked || ev.RRule != "" {
			s.recurrence.untrack(ev.ID)
			s.app.Events.Remove(ev.ID)
			s.Add(ev)
			return nil
		}
	}
	return s.app.Events.Update(ev)
}

// Set replaces every event, including recurring series.
func (s *EventsService) Set(events []model.Event) {
	s.app.Batcher.Batch(func() {
		if s.recurrence != nil {
			s.recurrence.reset()
		}
		plain := make([]model.Event, 0, len(events))
		var series []model.Event
		for _, ev := range events {
			if s.recurring(ev) {
				series = append(series, ev)
				continue
			}
			plain = append(plain, ev)
		}
		s.app.Events.Set(plain)
		for _, ev := range series {
			s.recurrence.track(ev)
		}
	})
}
