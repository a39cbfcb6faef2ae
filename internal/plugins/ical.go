package plugins

import (
	"time"

	"sxcal/internal/ics"
	appLog "sxcal/internal/log"
	"sxcal/internal/widget"
)

// ICalendar shows the events of an iCalendar document. Between replaces the
// events it owns with the occurrences of the given window.
type ICalendar struct {
	app    *widget.App
	data   string
	parsed []ics.ParsedEvent
	held   []string
}

func NewICalendar(data string) *ICalendar { return &ICalendar{data: data} }

func (*ICalendar) Kind() widget.PluginKind { return widget.PluginICalendar }

func (p *ICalendar) Install(app *widget.App) {
	p.app = app
	parsed, err := ics.ParseICS(ics.Source{ID: "ical:" + app.Container()}, []byte(p.data), app.Location())
	if err != nil {
		appLog.Error("ical data not loaded", err, "container", app.Container())
		return
	}
	p.parsed = parsed
	r := app.CalendarState.Range.Get()
	if err := p.Between(r.Start, r.End); err != nil {
		appLog.Error("ical initial expansion failed", err, "container", app.Container())
	}
}

// Between loads the occurrences that intersect [start, end].
func (p *ICalendar) Between(start, end time.Time) error {
	res, err := ics.ExpandOccurrences(p.parsed, ics.ExpandConfig{
		DisplayLocation: p.app.Location(),
		RangeStart:      start,
		RangeEnd:        end,
	})
	if err != nil {
		return err
	}
	p.app.Batcher.Batch(func() {
		for _, id := range p.held {
			p.app.Events.Remove(id)
		}
		p.held = p.held[:0]
		for _, occ := range res.Occurrences {
			ev := occ.Event()
			p.app.Events.Add(ev)
			p.held = append(p.held, ev.ID)
		}
	})
	return nil
}

// Owns reports whether the event id came from the iCalendar data.
func (p *ICalendar) Owns(id string) bool {
	for _, h := range p.held {
		if h == id {
			return true
		}
	}
	return false
}
