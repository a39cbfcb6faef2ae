package plugins

import (
	"time"

	"github.com/robfig/cron/v3"

	"sxcal/internal/calconfig"
	appLog "sxcal/internal/log"
	"sxcal/internal/signal"
	"sxcal/internal/widget"
)

// Executor runs fn serialized with every other access to the calendar.
type Executor func(fn func())

// CurrentTime moves the current-time indicator once a minute.
type CurrentTime struct {
	app     *widget.App
	cfg     calconfig.CurrentTimeIndicatorConfig
	exec    Executor
	now     *signal.Field[time.Time]
	cron    *cron.Cron
	entryID cron.EntryID
}

// NewCurrentTime builds the plugin. exec is used for the minute ticks, which
// arrive on the scheduler's goroutine; nil runs them directly.
func NewCurrentTime(cfg calconfig.CurrentTimeIndicatorConfig, b *signal.Batcher, exec Executor) *CurrentTime {
	if exec == nil {
		exec = func(fn func()) { fn() }
	}
	return &CurrentTime{
		cfg:  cfg,
		exec: exec,
		now:  signal.NewField(b, time.Time{}),
	}
}

func (*CurrentTime) Kind() widget.PluginKind { return widget.PluginCurrentTime }

func (c *CurrentTime) Install(app *widget.App) {
	c.app = app
	c.Tick()
}

// OnRender starts the minute schedule in the calendar's zone.
func (c *CurrentTime) OnRender(app *widget.App) {
	c.cron = cron.New(cron.WithLocation(app.Location()))
	id, err := c.cron.AddFunc("* * * * *", func() { c.exec(c.Tick) })
	if err != nil {
		appLog.Error("current time schedule failed", err, "container", app.Container())
		return
	}
	c.entryID = id
	c.cron.Start()
}

// Tick sets the indicator to the current minute.
func (c *CurrentTime) Tick() {
	now := c.app.Now().Truncate(time.Minute)
	if c.cfg.TimeZoneOffset != nil {
		now = now.Add(time.Duration(*c.cfg.TimeZoneOffset) * time.Minute)
	}
	c.now.Set(now)
}

func (c *CurrentTime) Now() *signal.Field[time.Time] { return c.now }

func (c *CurrentTime) FullWeekWidth() bool {
	return c.cfg.FullWeekWidth != nil && *c.cfg.FullWeekWidth
}

// Next is when the indicator moves next; zero before render.
func (c *CurrentTime) Next() time.Time {
	if c.cron == nil {
		return time.Time{}
	}
	return c.cron.Entry(c.entryID).Next
}

// Destroy stops the schedule. A tick already running may still complete.
func (c *CurrentTime) Destroy() {
	if c.cron != nil {
		c.cron.Stop()
	}
}
