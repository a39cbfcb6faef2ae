package web

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sxcal/internal/adapter"
	appLog "sxcal/internal/log"
	"sxcal/internal/metrics"
	"sxcal/internal/model"
	"sxcal/internal/notify"
	"sxcal/internal/provider"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
)

// maxRangeReplies bounds the range replies served after one operation.
const maxRangeReplies = 8

// Call is an outbound adapter call as recorded for the notification feed.
type Call struct {
	Method    string         `json:"method"`
	Args      map[string]any `json:"args,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type rangeRequest struct {
	start, end time.Time
}

// container is one calendar. mu is the calendar's UI thread: every inbound
// call and every current-time tick runs under it.
type container struct {
	id    string
	store *provider.Store

	mu      sync.Mutex
	adapter *adapter.Adapter
	handle  *adapter.Handle
	pending []rangeRequest
	feed    []notify.Notification
	calls   []Call
	unsub   func()
}

func newContainer(id string, variant views.Variant, store *provider.Store, now func() time.Time) (*container, error) {
	c := &container{id: id, store: store}
	bus := notify.NewBus()
	a, err := adapter.New(variant, c, bus, adapter.Options{
		Executor: c.exec,
		Now:      now,
	})
	if err != nil {
		return nil, err
	}
	c.adapter = a
	c.unsub = bus.SubscribeAll(func(n notify.Notification) error {
		metrics.Notification(string(n.Name))
		c.feed = append(c.feed, n)
		return nil
	})
	return c, nil
}

// exec runs fn on the calendar's UI thread.
func (c *container) exec(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
	c.serveRanges()
}

// do is exec for inbound calls that return an error.
func (c *container) do(fn func() error) error {
	var err error
	c.exec(func() { err = fn() })
	return err
}

func (c *container) attach(ctx context.Context, req adapter.CreateRequest) error {
	return c.do(func() error {
		p, err := c.adapter.Prepare(req)
		if err != nil {
			return err
		}
		h, err := c.adapter.Attach(ctx, p, c.id)
		if err != nil {
			return err
		}
		c.handle = h
		metrics.ContainerAttached()
		return nil
	})
}

func (c *container) destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.handle != nil {
		c.handle.Destroy()
		c.handle = nil
		metrics.ContainerDetached()
	}
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
}

// withHandle runs fn on the UI thread with the attached calendar.
func (c *container) withHandle(fn func(h *adapter.Handle) error) error {
	return c.do(func() error {
		if c.handle == nil {
			return adapter.ErrNotAttached
		}
		return fn(c.handle)
	})
}

// drain returns and clears the queued notifications and calls.
func (c *container) drain() ([]notify.Notification, []Call) {
	c.mu.Lock()
	defer c.mu.Unlock()
	feed, calls := c.feed, c.calls
	c.feed, c.calls = nil, nil
	if feed == nil {
		feed = []notify.Notification{}
	}
	if calls == nil {
		calls = []Call{}
	}
	return feed, calls
}

// serveRanges answers queued range requests from the store. It runs after
// the operation that queued them, never from inside an adapter call.
func (c *container) serveRanges() {
	for i := 0; len(c.pending) > 0; i++ {
		req := c.pending[0]
		c.pending = c.pending[1:]
		if c.handle == nil {
			continue
		}
		if i >= maxRangeReplies {
			appLog.Error("range replies dropped", errRangeLoop, "container", c.id, "pending", len(c.pending)+1)
			c.pending = nil
			return
		}

		loc := c.handle.Location()
		events, err := c.store.Range(req.start, req.end, loc)
		if err != nil {
			appLog.Error("range not served", err, "container", c.id)
			continue
		}
		raw, err := json.Marshal(events)
		if err != nil {
			appLog.Error("range events not encoded", err, "container", c.id)
			continue
		}
		start := temporal.FormatZoned(req.start.In(loc))
		end := temporal.FormatZoned(req.end.In(loc))
		if err := c.handle.OnUpdateRange(string(raw), start, end); err != nil {
			appLog.Error("range reply rejected", err, "container", c.id)
		}
	}
}

func (c *container) record(method string, args map[string]any, err error) {
	metrics.ServerCall(method, err)
	c.calls = append(c.calls, Call{Method: method, Args: args, Timestamp: time.Now()})
}

// The methods below implement adapter.Server. They run on the UI thread
// inside an adapter call, so replies are queued instead of sent.

func (c *container) UpdateRange(_ context.Context, start, end time.Time) error {
	c.pending = append(c.pending, rangeRequest{start, end})
	c.record("updateRange", map[string]any{"start": start, "end": end}, nil)
	return nil
}

func (c *container) UpdateResourceSchedulerRange(_ context.Context, start, end time.Time) error {
	c.pending = append(c.pending, rangeRequest{start, end})
	c.record("updateResourceSchedulerRange", map[string]any{"start": start, "end": end}, nil)
	return nil
}

func (c *container) OnCalendarEventClick(_ context.Context, id string, start, end temporal.Value) error {
	c.record("onCalendarEventClick", map[string]any{"id": id, "start": start, "end": end}, nil)
	return nil
}

func (c *container) OnSelectedDateUpdate(_ context.Context, date temporal.PlainDate) error {
	c.record("onSelectedDateUpdate", map[string]any{"date": date}, nil)
	return nil
}

// OnEventUpdate persists a drag or resize. Events the store does not hold
// (feed occurrences, series instances) are only recorded.
func (c *container) OnEventUpdate(_ context.Context, id string, start, end temporal.Value) error {
	err := c.store.Move(id, start, end)
	if err != nil {
		appLog.Debug("moved event not stored", "id", id, "container", c.id)
	}
	c.record("onEventUpdate", map[string]any{"id": id, "start": start, "end": end}, nil)
	return nil
}

// ValidateDrawnEvent rejects drawings that overlap a stored event.
func (c *container) ValidateDrawnEvent(_ context.Context, id string, start, end temporal.Value) (bool, error) {
	loc := time.UTC
	if c.handle != nil {
		loc = c.handle.Location()
	}
	s, e := start.At(loc), end.At(loc)
	if end.IsDate() {
		e = e.AddDate(0, 0, 1)
	}
	ok := e.After(s) && !c.store.Collides(id, s, e, loc)
	c.record("validateDrawnEvent", map[string]any{"id": id, "start": start, "end": end, "valid": ok}, nil)
	return ok, nil
}

func (c *container) AddEvent(_ context.Context, ev model.Event) error {
	stored := c.store.Put(ev)
	c.record("addEvent", map[string]any{"id": stored.ID}, nil)
	return nil
}
