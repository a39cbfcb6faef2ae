// Package adapter synchronizes a calendar widget with its server. It builds
// the widget from the server's JSON configuration, forwards widget callbacks
// to the server and applies the server's changes to the live widget.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sxcal/internal/calconfig"
	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/notify"
	"sxcal/internal/plugins"
	"sxcal/internal/signal"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
	"sxcal/internal/widget"
)

var (
	ErrUnknownVariant = errors.New("unknown adapter variant")
	ErrNotAttached    = errors.New("calendar not attached")
	ErrAttached       = errors.New("calendar already attached")
)

// Server receives the adapter's outbound calls. Implementations must not
// call back into the adapter synchronously; replies such as the events for a
// requested range arrive later through Handle.OnUpdateRange.
type Server interface {
	UpdateRange(ctx context.Context, start, end time.Time) error
	UpdateResourceSchedulerRange(ctx context.Context, start, end time.Time) error
	OnCalendarEventClick(ctx context.Context, id string, start, end temporal.Value) error
	OnSelectedDateUpdate(ctx context.Context, date temporal.PlainDate) error
	OnEventUpdate(ctx context.Context, id string, start, end temporal.Value) error
	ValidateDrawnEvent(ctx context.Context, id string, start, end temporal.Value) (bool, error)
	AddEvent(ctx context.Context, ev model.Event) error
}

// Options tune an adapter.
type Options struct {
	// Executor runs current-time ticks, which arrive on their own goroutine,
	// serialized with the container's other calls.
	Executor plugins.Executor
	// Now overrides the widget clock.
	Now func() time.Time
}

// Adapter drives the calendar of one container. It is not safe for
// concurrent use.
type Adapter struct {
	variant   views.Variant
	factories map[string]views.Factory
	nameMap   map[string]string
	server    Server
	bus       *notify.Bus
	opts      Options

	handle *Handle
}

// New returns an adapter for one container of the given variant.
func New(variant views.Variant, server Server, bus *notify.Bus, opts Options) (*Adapter, error) {
	factories := views.Factories(variant)
	if factories == nil {
		return nil, fmt.Errorf("%q: %w", variant, ErrUnknownVariant)
	}
	if bus == nil {
		bus = notify.NewBus()
	}
	return &Adapter{
		variant:   variant,
		factories: factories,
		nameMap:   views.NameMap(factories),
		server:    server,
		bus:       bus,
		opts:      opts,
	}, nil
}

func (a *Adapter) Variant() views.Variant { return a.variant }
func (a *Adapter) Bus() *notify.Bus       { return a.bus }

// Handle returns the attached calendar.
func (a *Adapter) Handle() (*Handle, error) {
	if a.handle == nil {
		return nil, ErrNotAttached
	}
	return a.handle, nil
}

// CreateRequest is the server's creation call. Every field except
// CurrentView and Draw is a JSON document; empty strings mean absent.
type CreateRequest struct {
	Views                     string
	Config                    string
	Calendars                 string
	ResourceConfig            string
	SchedulingAssistantConfig string
	// CurrentView is a logical view name applied once the calendar exists.
	CurrentView string
	// Draw installs the draw plugin even without drawOptions.
	Draw bool
}

// Pending is a prepared calendar that is not yet bound to a container.
type Pending struct {
	cfg         calconfig.Configuration
	views       []views.View
	calendars   map[string]model.Calendar
	resources   *model.ResourceConfig
	assistant   *model.SchedulingAssistantConfig
	currentView string
	batcher     *signal.Batcher
	plugins     []widget.Plugin
	draw        *plugins.Draw
}

func (p *Pending) Config() calconfig.Configuration { return p.cfg }
func (p *Pending) Views() []views.View             { return p.views }

// Prepare parses the creation call and builds the plugin set.
func (a *Adapter) Prepare(req CreateRequest) (*Pending, error) {
	names, err := decodeViewNames(req.Views)
	if err != nil {
		return nil, err
	}
	cals, err := model.DecodeCalendars(req.Calendars)
	if err != nil {
		return nil, err
	}
	cfg, err := calconfig.Process(req.Config, a.nameMap)
	if err != nil {
		return nil, err
	}

	p := &Pending{cfg: cfg, calendars: cals, batcher: signal.NewBatcher()}

	if req.CurrentView != "" {
		native, ok := a.nameMap[req.CurrentView]
		if !ok {
			return nil, fmt.Errorf("currentView %q: %w", req.CurrentView, calconfig.ErrUnknownView)
		}
		p.currentView = native
	}

	if a.variant != views.VariantCalendar {
		p.resources, err = model.DecodeResourceConfig(req.ResourceConfig, cfg.Location(), p.batcher)
		if err != nil {
			return nil, err
		}
	}
	if a.variant == views.VariantResourceScheduler {
		p.assistant, err = model.DecodeSchedulingAssistantConfig(req.SchedulingAssistantConfig)
		if err != nil {
			return nil, err
		}
	}

	p.views = views.Resolve(names, a.factories, p.resources)
	if len(p.views) == 0 {
		appLog.Error("no view resolved", errNoViews, "views", req.Views, "variant", a.variant)
	}

	p.plugins = a.buildPlugins(p, req.Draw)
	return p, nil
}

var errNoViews = errors.New("empty view set")

// buildPlugins returns the fixed plugins followed by the conditional ones.
func (a *Adapter) buildPlugins(p *Pending, forceDraw bool) []widget.Plugin {
	cfg := p.cfg
	initialScroll := ""
	if cfg.ScrollControllerConfig != nil {
		initialScroll = cfg.ScrollControllerConfig.InitialScroll
	}
	ps := []widget.Plugin{
		plugins.NewControls(),
		plugins.NewDragAndDrop(cfg.DragAndDropMinutes()),
		plugins.NewEventsService(),
		plugins.NewRecurrence(),
		plugins.NewResize(cfg.ResizeMinutes()),
		plugins.NewScrollController(initialScroll),
	}

	if forceDraw || cfg.DrawOptions != nil {
		snap := 0
		if cfg.DrawOptions != nil && cfg.DrawOptions.SnapDrawDuration != nil {
			snap = *cfg.DrawOptions.SnapDrawDuration
		}
		p.draw = plugins.NewDraw(snap, plugins.DrawHooks{
			BeforeFinish: a.validateDrawnEvent,
			OnFinish:     a.server.AddEvent,
		})
		ps = append(ps, p.draw)
	}
	if cfg.ICal != nil {
		ps = append(ps, plugins.NewICalendar(cfg.ICal.ICal))
	}
	if cfg.CurrentTimeIndicatorConfig != nil {
		ps = append(ps, plugins.NewCurrentTime(*cfg.CurrentTimeIndicatorConfig, p.batcher, a.opts.Executor))
	}
	if p.resources != nil && p.assistant != nil {
		ps = append(ps, plugins.NewSchedulingAssistant(*p.assistant, p.batcher))
	}
	return ps
}

func (a *Adapter) validateDrawnEvent(ctx context.Context, ev model.Event) (bool, error) {
	return a.server.ValidateDrawnEvent(ctx, ev.ID, ev.Start, ev.End)
}

// Attach creates the widget for p, renders it into container and wires the
// callbacks. A "calendar-rendered" notification is published once the
// widget is rendered.
func (a *Adapter) Attach(ctx context.Context, p *Pending, container string) (*Handle, error) {
	if a.handle != nil {
		return nil, ErrAttached
	}
	h := &Handle{
		adapter:   a,
		container: container,
		ctx:       context.WithoutCancel(ctx),
		draw:      p.draw,
	}
	if p.cfg.DrawOptions != nil {
		h.drawTitle = p.cfg.DrawOptions.DefaultTitle
	}

	cal, err := widget.New(a.widgetConfig(p, h), p.plugins...)
	if err != nil {
		return nil, fmt.Errorf("create calendar: %w", err)
	}
	h.cal = cal
	h.app = cal.App()

	if err := cal.Render(container); err != nil {
		return nil, fmt.Errorf("render calendar: %w", err)
	}
	a.handle = h
	h.publish(notify.CalendarRendered, nil)

	if sa, ok := pluginAs[widget.SchedulingAssistant](h.app, widget.PluginSchedulingAssistant); ok {
		h.subscribeAssistant(sa)
	}
	if p.currentView != "" {
		if ctl, ok := h.controls(); ok {
			ctl.SetView(p.currentView)
		}
	}

	appLog.Info("calendar attached",
		"container", container,
		"variant", a.variant,
		"views", len(p.views),
		"plugins", len(p.plugins),
	)
	return h, nil
}

func (a *Adapter) widgetConfig(p *Pending, h *Handle) widget.Config {
	cfg := p.cfg
	wc := widget.Config{
		Views:          p.views,
		Calendars:      p.calendars,
		DefaultView:    cfg.DefaultView,
		Location:       cfg.Location(),
		FirstDayOfWeek: cfg.FirstWeekday(),
		Resources:      p.resources,
		Callbacks:      h.callbacks(),
		Batcher:        p.batcher,
		Now:            a.opts.Now,
	}
	if cfg.SelectedDate.Valid {
		wc.SelectedDate = cfg.SelectedDate.Date
	}
	if cfg.MinDate.Valid {
		wc.MinDate = cfg.MinDate.Date
	}
	if cfg.MaxDate.Valid {
		wc.MaxDate = cfg.MaxDate.Date
	}
	if cfg.Locale != "" {
		if calconfig.SupportedLocale(cfg.Locale) {
			wc.Locale = calconfig.NormalizeLocale(cfg.Locale)
		} else {
			appLog.Error("ignoring locale", errUnsupportedLocale, "locale", cfg.Locale)
		}
	}
	if cfg.IsDark != nil {
		wc.IsDark = *cfg.IsDark
	}
	if cfg.DayBoundaries != nil {
		wc.DayBoundaries = *cfg.DayBoundaries
	}
	if cfg.WeekOptions != nil {
		wc.WeekOptions = *cfg.WeekOptions
	}
	if cfg.MonthGridOptions != nil {
		wc.MonthGridOptions = *cfg.MonthGridOptions
	}
	return wc
}

var errUnsupportedLocale = errors.New("unsupported locale")

func decodeViewNames(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var names []string
	if err := json.Unmarshal([]byte(raw), &names); err != nil {
		return nil, fmt.Errorf("decode views: %w", err)
	}
	return names, nil
}

// pluginAs looks up a plugin by kind and asserts its capability interface.
func pluginAs[T any](app *widget.App, kind widget.PluginKind) (T, bool) {
	var zero T
	p, ok := app.Plugin(kind)
	if !ok {
		return zero, false
	}
	t, ok := p.(T)
	return t, ok
}
