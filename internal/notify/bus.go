package notify

import (
	"fmt"
	"sync"
	"time"

	appLog "sxcal/internal/log"
)

// Name identifies an outbound notification sent to the server.
type Name string

const (
	CalendarRendered           Name = "calendar-rendered"
	ViewDateUpdated            Name = "calendar-state-view-date-updated"
	EventAdded                 Name = "calendar-event-added"
	EventRemoved               Name = "calendar-event-removed"
	EventUpdated               Name = "calendar-event-updated"
	SchedulingAssistantUpdated Name = "scheduling-assistant-update"
)

// Notification is the envelope delivered to subscribers. Detail holds one of
// the payload types below (or nil for CalendarRendered).
type Notification struct {
	Container string    `json:"container"`
	Name      Name      `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	Detail    any       `json:"detail,omitempty"`
}

type ViewDateDetail struct {
	ViewName     string `json:"viewName"`
	SelectedDate string `json:"selectedDate"`
}

type EventDetail struct {
	EventID string `json:"eventId"`
}

type SchedulingAssistantDetail struct {
	CurrentStart string `json:"currentStart"`
	CurrentEnd   string `json:"currentEnd"`
	HasCollision bool   `json:"hasCollision"`
}

type handler func(Notification) error

// Bus is a concurrency-safe synchronous dispatcher. Handlers run in
// registration order during Publish.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Name][]entry
	all         []entry
	nextID      uint64
}

type entry struct {
	id uint64
	h  handler
}

func NewBus() *Bus {
	return &Bus{subscribers: make(map[Name][]entry)}
}

// Subscribe registers h for one notification name. It returns a function
// that removes the handler.
func (b *Bus) Subscribe(name Name, h func(Notification) error) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers[name] = append(b.subscribers[name], entry{id, h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subscribers[name] = without(b.subscribers[name], id)
		if len(b.subscribers[name]) == 0 {
			delete(b.subscribers, name)
		}
	}
}

// SubscribeAll registers h for every notification.
func (b *Bus) SubscribeAll(h func(Notification) error) (unsubscribe func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, entry{id, h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = without(b.all, id)
	}
}

// Publish delivers n to its handlers. Handler errors and panics are logged
// and collected; delivery continues with the remaining handlers.
func (b *Bus) Publish(n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	b.mu.RLock()
	handlers := make([]entry, 0, len(b.subscribers[n.Name])+len(b.all))
	handlers = append(handlers, b.subscribers[n.Name]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	var errs []error
	for _, e := range handlers {
		err := func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("handler panic (ID %d) for %s: %v", e.id, n.Name, r)
				}
			}()
			return e.h(n)
		}()
		if err != nil {
			appLog.Error("notify: handler failed", err, "name", n.Name, "container", n.Container)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("notification %s: %d handler(s) failed: %v", n.Name, len(errs), errs)
	}
	return nil
}

func without(entries []entry, id uint64) []entry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.id != id {
			out = append(out, e)
		}
	}
	return out
}
