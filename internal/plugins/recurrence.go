package plugins

import (
	"sxcal/internal/ics"
	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/widget"
)

// Recurrence keeps recurring series out of the event collection and inserts
// their instances for the current range instead.
type Recurrence struct {
	app       *widget.App
	rng       model.Range
	order     []string
	byID      map[string]model.Event
	instances map[string][]string
}

func NewRecurrence() *Recurrence {
	return &Recurrence{
		byID:      make(map[string]model.Event),
		instances: make(map[string][]string),
	}
}

func (*Recurrence) Kind() widget.PluginKind { return widget.PluginEventRecurrence }

// Install takes over series already present in the initial events.
func (r *Recurrence) Install(app *widget.App) {
	r.app = app
	r.rng = app.CalendarState.Range.Get()
	for _, ev := range app.Events.GetAll() {
		if ev.RRule == "" {
			continue
		}
		app.Events.Remove(ev.ID)
		r.track(ev)
	}
}

// OnRangeUpdate re-expands every series for rng.
func (r *Recurrence) OnRangeUpdate(rng model.Range) {
	r.rng = rng
	r.app.Batcher.Batch(func() {
		for _, id := range r.order {
			r.expand(id)
		}
	})
}

func (r *Recurrence) series(id string) (model.Event, bool) {
	ev, ok := r.byID[id]
	if !ok {
		return model.Event{}, false
	}
	return ev.Clone(), true
}

func (r *Recurrence) track(ev model.Event) {
	if _, ok := r.byID[ev.ID]; !ok {
		r.order = append(r.order, ev.ID)
	}
	r.byID[ev.ID] = ev.Clone()
	r.expand(ev.ID)
}

func (r *Recurrence) untrack(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	r.clear(id)
	delete(r.byID, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Recurrence) reset() {
	for _, id := range append([]string(nil), r.order...) {
		r.untrack(id)
	}
}

func (r *Recurrence) clear(id string) {
	for _, inst := range r.instances[id] {
		r.app.Events.Remove(inst)
	}
	delete(r.instances, id)
}

func (r *Recurrence) expand(id string) {
	r.clear(id)
	if r.rng.Start.IsZero() && r.rng.End.IsZero() {
		return
	}
	insts, err := ics.ExpandEvent(r.byID[id], r.rng.Start, r.rng.End, r.app.Location())
	if err != nil {
		appLog.Error("recurrence expansion failed", err, "id", id, "container", r.app.Container())
		return
	}
	ids := make([]string, 0, len(insts))
	for _, inst := range insts {
		r.app.Events.Add(inst)
		ids = append(ids, inst.ID)
	}
	r.instances[id] = ids
}
