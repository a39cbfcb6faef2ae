package plugins

import (
	"time"

	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/signal"
	"sxcal/internal/temporal"
	"sxcal/internal/widget"
)

// SchedulingAssistant tracks a tentative slot and whether it collides with
// an event of the calendar.
type SchedulingAssistant struct {
	app       *widget.App
	cfg       model.SchedulingAssistantConfig
	start     *signal.Field[time.Time]
	end       *signal.Field[time.Time]
	collision *signal.Field[bool]
	unsub     func()
}

// NewSchedulingAssistant creates the plugin's fields on b so subscribers
// attached before render share the calendar's batches.
func NewSchedulingAssistant(cfg model.SchedulingAssistantConfig, b *signal.Batcher) *SchedulingAssistant {
	return &SchedulingAssistant{
		cfg:       cfg,
		start:     signal.NewField(b, time.Time{}),
		end:       signal.NewField(b, time.Time{}),
		collision: signal.NewField(b, false),
	}
}

func (*SchedulingAssistant) Kind() widget.PluginKind { return widget.PluginSchedulingAssistant }

func (s *SchedulingAssistant) Install(app *widget.App) {
	s.app = app
	loc := app.Location()
	start, err := temporal.ToZoned(s.cfg.InitialStart, loc)
	if err != nil {
		appLog.Error("scheduling assistant initial start ignored", err, "value", s.cfg.InitialStart)
		start = app.Now().Truncate(time.Hour)
	}
	end, err := temporal.ToZoned(s.cfg.InitialEnd, loc)
	if err != nil || !end.After(start) {
		end = start.Add(time.Hour)
	}
	s.start.Set(start)
	s.end.Set(end)
	s.recompute()
	s.unsub = app.Events.Version.Subscribe(func(uint64) { s.recompute() })
}

func (s *SchedulingAssistant) CurrentStart() *signal.Field[time.Time] { return s.start }
func (s *SchedulingAssistant) CurrentEnd() *signal.Field[time.Time]   { return s.end }
func (s *SchedulingAssistant) HasCollision() *signal.Field[bool]      { return s.collision }

// Move sets the slot and refreshes the collision flag in one batch. The
// bounds are stored in the calendar zone so the same instant is no change.
func (s *SchedulingAssistant) Move(start, end time.Time) {
	loc := s.app.Location()
	s.app.Batcher.Batch(func() {
		s.start.Set(start.In(loc))
		s.end.Set(end.In(loc))
		s.recompute()
	})
}

func (s *SchedulingAssistant) recompute() {
	start, end := s.start.Get(), s.end.Get()
	loc := s.app.Location()
	hit := false
	for _, ev := range s.app.Events.GetAll() {
		if ev.Overlaps(start, end, loc) {
			hit = true
			break
		}
	}
	s.collision.Set(hit)
}

func (s *SchedulingAssistant) Destroy() {
	if s.unsub != nil {
		s.unsub()
	}
}
