package widget

import (
	"errors"

	"sxcal/internal/model"
	"sxcal/internal/signal"
)

var ErrEventNotFound = errors.New("event not found")

// EventStore is the calendar's ordered, id-keyed event collection. Version
// changes after every mutation so observers can react to edits.
type EventStore struct {
	order   []string
	byID    map[string]model.Event
	Version *signal.Field[uint64]
}

func NewEventStore(b *signal.Batcher) *EventStore {
	return &EventStore{
		byID:    make(map[string]model.Event),
		Version: signal.NewField[uint64](b, 0),
	}
}

func (s *EventStore) bump() { s.Version.Set(s.Version.Get() + 1) }

// Add inserts ev, or replaces the event with the same id in place.
func (s *EventStore) Add(ev model.Event) {
	if _, ok := s.byID[ev.ID]; !ok {
		s.order = append(s.order, ev.ID)
	}
	s.byID[ev.ID] = ev.Clone()
	s.bump()
}

func (s *EventStore) Get(id string) (model.Event, bool) {
	ev, ok := s.byID[id]
	if !ok {
		return model.Event{}, false
	}
	return ev.Clone(), true
}

// GetAll returns copies of every event in insertion order.
func (s *EventStore) GetAll() []model.Event {
	out := make([]model.Event, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

func (s *EventStore) Len() int { return len(s.order) }

func (s *EventStore) Remove(id string) bool {
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.bump()
	return true
}

// Update replaces an existing event.
func (s *EventStore) Update(ev model.Event) error {
	if _, ok := s.byID[ev.ID]; !ok {
		return ErrEventNotFound
	}
	s.byID[ev.ID] = ev.Clone()
	s.bump()
	return nil
}

// Set replaces the whole collection.
func (s *EventStore) Set(events []model.Event) {
	s.order = s.order[:0]
	s.byID = make(map[string]model.Event, len(events))
	for _, ev := range events {
		if _, dup := s.byID[ev.ID]; !dup {
			s.order = append(s.order, ev.ID)
		}
		s.byID[ev.ID] = ev.Clone()
	}
	s.bump()
}
