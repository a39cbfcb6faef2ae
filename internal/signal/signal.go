// Package signal provides observable fields for widget state that other
// parts of the system (the adapter, plugins) subscribe to.
//
// Changes made inside Batcher.Batch are delivered once per subscriber when
// the outermost batch returns, so a subscriber attached to several fields
// through Combine sees a single notification carrying the latest values.
package signal

// Batcher groups field changes into one delivery tick. A nil *Batcher is
// valid and delivers every change immediately.
type Batcher struct {
	depth   int
	pending []*subscriber
	queued  map[*subscriber]struct{}
}

func NewBatcher() *Batcher {
	return &Batcher{queued: make(map[*subscriber]struct{})}
}

// Batch runs fn and defers subscriber delivery until the outermost Batch
// call returns.
func (b *Batcher) Batch(fn func()) {
	if b == nil {
		fn()
		return
	}
	b.depth++
	defer func() {
		b.depth--
		if b.depth == 0 {
			b.flush()
		}
	}()
	fn()
}

func (b *Batcher) notify(s *subscriber) {
	if b == nil || b.depth == 0 {
		s.run()
		return
	}
	if _, ok := b.queued[s]; ok {
		return
	}
	b.queued[s] = struct{}{}
	b.pending = append(b.pending, s)
}

func (b *Batcher) flush() {
	// Subscribers may change fields again; those land in a new round.
	for len(b.pending) > 0 {
		round := b.pending
		b.pending = nil
		b.queued = make(map[*subscriber]struct{})
		b.depth++
		for _, s := range round {
			s.run()
		}
		b.depth--
	}
}

type subscriber struct {
	fn     func()
	active bool
}

func (s *subscriber) run() {
	if s.active {
		s.fn()
	}
}

// Observable is implemented by *Field[T]; it lets Combine attach a single
// subscriber to fields of different types.
type Observable interface {
	attach(s *subscriber) (detach func())
}

// Field is a value that notifies subscribers when it changes.
type Field[T comparable] struct {
	b      *Batcher
	value  T
	subs   map[uint64]*subscriber
	order  []uint64
	nextID uint64
}

func NewField[T comparable](b *Batcher, initial T) *Field[T] {
	return &Field[T]{b: b, value: initial, subs: make(map[uint64]*subscriber)}
}

func (f *Field[T]) Get() T {
	return f.value
}

// Set stores v and notifies subscribers. Setting an equal value is a no-op.
func (f *Field[T]) Set(v T) {
	if f.value == v {
		return
	}
	f.value = v
	for _, id := range f.order {
		if s, ok := f.subs[id]; ok {
			f.b.notify(s)
		}
	}
}

// Subscribe registers fn for future changes. fn receives the value current at
// delivery time. The returned function removes the subscription.
func (f *Field[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s := &subscriber{active: true}
	s.fn = func() { fn(f.value) }
	detach := f.attach(s)
	return func() {
		s.active = false
		detach()
	}
}

func (f *Field[T]) attach(s *subscriber) func() {
	f.nextID++
	id := f.nextID
	f.subs[id] = s
	f.order = append(f.order, id)
	return func() {
		delete(f.subs, id)
		for i, v := range f.order {
			if v == id {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
}

// Combine calls fn whenever any of fields changes. Within one batch fn runs
// at most once, after all changes of that batch have been applied.
func Combine(fn func(), fields ...Observable) (unsubscribe func()) {
	s := &subscriber{fn: fn, active: true}
	detaches := make([]func(), 0, len(fields))
	for _, f := range fields {
		detaches = append(detaches, f.attach(s))
	}
	return func() {
		s.active = false
		for _, d := range detaches {
			d()
		}
	}
}
