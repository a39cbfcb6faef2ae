package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"sxcal/internal/adapter"
	"sxcal/internal/calconfig"
	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/plugins"
	"sxcal/internal/temporal"
	"sxcal/internal/views"
	"sxcal/internal/widget"
)

// maxBody caps request bodies.
const maxBody = 1 << 20

// rawString accepts a JSON document either inline or as a JSON string, the
// form the server framework sends. Null and absent mean empty.
func rawString(m json.RawMessage) string {
	s := strings.TrimSpace(string(m))
	if s == "" || s == "null" {
		return ""
	}
	if s[0] == '"' {
		var out string
		if err := json.Unmarshal(m, &out); err == nil {
			return out
		}
	}
	return s
}

func readBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// statusFor maps adapter and widget errors to HTTP statuses. Anything not
// listed is bad input.
func statusFor(err error) int {
	switch {
	case errors.Is(err, calconfig.ErrUnknownView), errors.Is(err, adapter.ErrUnknownVariant):
		return http.StatusBadRequest
	case errors.Is(err, errNoContainer), errors.Is(err, widget.ErrEventNotFound):
		return http.StatusNotFound
	case errors.Is(err, adapter.ErrNotAttached),
		errors.Is(err, adapter.ErrAttached),
		errors.Is(err, errContainerExists),
		errors.Is(err, widget.ErrPluginMissing),
		errors.Is(err, widget.ErrNotRendered),
		errors.Is(err, plugins.ErrInteractionDisabled),
		errors.Is(err, plugins.ErrNoDrawing):
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	appLog.Debug("request rejected", "status", status, "error", err.Error())
	writeError(w, status, err.Error())
}

// withHandle looks up the container in the URL and runs fn on its UI thread.
func (s *Server) withHandle(w http.ResponseWriter, r *http.Request, fn func(h *adapter.Handle) error) bool {
	c, ok := s.container(chi.URLParam(r, "id"))
	if !ok {
		fail(w, errNoContainer)
		return false
	}
	if err := c.withHandle(fn); err != nil {
		fail(w, err)
		return false
	}
	return true
}

type createBody struct {
	Variant                   string          `json:"variant"`
	Views                     json.RawMessage `json:"views"`
	Config                    json.RawMessage `json:"config"`
	Calendars                 json.RawMessage `json:"calendars"`
	ResourceConfig            json.RawMessage `json:"resourceConfig"`
	SchedulingAssistantConfig json.RawMessage `json:"schedulingAssistantConfig"`
	CurrentView               string          `json:"currentView"`
	Draw                      bool            `json:"draw"`
}

type stateResponse struct {
	Container    string      `json:"container"`
	Variant      string      `json:"variant"`
	View         string      `json:"view"`
	SelectedDate string      `json:"selectedDate"`
	Range        model.Range `json:"range"`
	Events       int         `json:"events"`
}

func state(c *container, h *adapter.Handle) stateResponse {
	return stateResponse{
		Container:    c.id,
		Variant:      string(c.adapter.Variant()),
		View:         h.View(),
		SelectedDate: h.SelectedDate().String(),
		Range:        h.Range(),
		Events:       len(h.Events()),
	}
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"containers": s.containerIDs()})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body createBody
	if err := readBody(r, &body); err != nil {
		fail(w, err)
		return
	}
	variant := views.Variant(body.Variant)
	if variant == "" {
		variant = views.VariantCalendar
	}

	c, err := newContainer(id, variant, s.store, s.now)
	if err != nil {
		fail(w, err)
		return
	}

	s.mu.Lock()
	if _, exists := s.containers[id]; exists {
		s.mu.Unlock()
		c.destroy()
		fail(w, fmt.Errorf("%s: %w", id, errContainerExists))
		return
	}
	s.containers[id] = c
	s.mu.Unlock()

	req := adapter.CreateRequest{
		Views:                     rawString(body.Views),
		Config:                    s.withConfigDefaults(rawString(body.Config)),
		Calendars:                 rawString(body.Calendars),
		ResourceConfig:            rawString(body.ResourceConfig),
		SchedulingAssistantConfig: rawString(body.SchedulingAssistantConfig),
		CurrentView:               body.CurrentView,
		Draw:                      body.Draw,
	}
	if req.Views == "" {
		b, _ := json.Marshal(s.cfg.Views)
		req.Views = string(b)
	}

	if err := c.attach(r.Context(), req); err != nil {
		s.mu.Lock()
		delete(s.containers, id)
		s.mu.Unlock()
		c.destroy()
		fail(w, err)
		return
	}

	var resp stateResponse
	_ = c.withHandle(func(h *adapter.Handle) error {
		resp = state(c, h)
		return nil
	})
	writeJSON(w, http.StatusCreated, resp)
}

// withConfigDefaults fills timezone, locale and firstDayOfWeek from the host
// configuration when the calendar configuration leaves them out. Input that
// is not a JSON object is returned unchanged.
func (s *Server) withConfigDefaults(raw string) string {
	fields := map[string]json.RawMessage{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &fields); err != nil {
			return raw
		}
	}
	set := func(key string, v any) {
		if _, ok := fields[key]; ok {
			return
		}
		b, err := json.Marshal(v)
		if err == nil {
			fields[key] = b
		}
	}
	set("timezone", s.cfg.Timezone)
	set("locale", s.cfg.Locale)
	set("firstDayOfWeek", s.cfg.FirstDayOfWeek)

	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return string(out)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	c, ok := s.container(chi.URLParam(r, "id"))
	if !ok {
		fail(w, errNoContainer)
		return
	}
	var resp stateResponse
	err := c.withHandle(func(h *adapter.Handle) error {
		resp = state(c, h)
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDestroy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	c, ok := s.containers[id]
	delete(s.containers, id)
	s.mu.Unlock()
	if !ok {
		fail(w, errNoContainer)
		return
	}
	c.destroy()
	w.WriteHeader(http.StatusNoContent)
}

type settingBody struct {
	Value json.RawMessage `json:"value"`
}

var setters = map[string]func(h *adapter.Handle, v string) error{
	"view":             (*adapter.Handle).SetView,
	"date":             (*adapter.Handle).SetDate,
	"locale":           (*adapter.Handle).SetLocale,
	"timeZone":         (*adapter.Handle).SetTimeZone,
	"views":            (*adapter.Handle).SetViews,
	"calendars":        (*adapter.Handle).SetCalendars,
	"minDate":          (*adapter.Handle).SetMinDate,
	"maxDate":          (*adapter.Handle).SetMaxDate,
	"dayBoundaries":    (*adapter.Handle).SetDayBoundaries,
	"weekOptions":      (*adapter.Handle).SetWeekOptions,
	"monthGridOptions": (*adapter.Handle).SetMonthGridOptions,
	"firstDayOfWeek": func(h *adapter.Handle, v string) error {
		day, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("first day of week %q: %w", v, err)
		}
		return h.SetFirstDayOfWeek(day)
	},
}

func (s *Server) handleSetting(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "setting")
	set, ok := setters[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown setting "+strconv.Quote(name))
		return
	}
	var body settingBody
	if err := readBody(r, &body); err != nil {
		fail(w, err)
		return
	}
	value := rawString(body.Value)

	c, ok := s.container(chi.URLParam(r, "id"))
	if !ok {
		fail(w, errNoContainer)
		return
	}
	var resp stateResponse
	err := c.withHandle(func(h *adapter.Handle) error {
		if err := set(h, value); err != nil {
			return err
		}
		resp = state(c, h)
		return nil
	})
	if err != nil {
		fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	dir, err := adapter.ParseDirection(chi.URLParam(r, "direction"))
	if err != nil {
		fail(w, err)
		return
	}
	var (
		moved    bool
		selected string
	)
	if s.withHandle(w, r, func(h *adapter.Handle) error {
		var err error
		moved, err = h.Navigate(dir)
		selected = h.SelectedDate().String()
		return err
	}) {
		writeJSON(w, http.StatusOK, map[string]any{"moved": moved, "selectedDate": selected})
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var events []model.Event
	if s.withHandle(w, r, func(h *adapter.Handle) error {
		events = h.Events()
		return nil
	}) {
		if events == nil {
			events = []model.Event{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": events})
	}
}

// readEvent reads one event and keeps it in the store so later range
// replies include it.
func (s *Server) readEvent(r *http.Request) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return "", err
	}
	var ev model.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return "", fmt.Errorf("decode event: %w", err)
	}
	if ev.ID == "" {
		return "", errors.New("event without id")
	}
	s.store.Put(ev)
	return string(body), nil
}

func (s *Server) handleAddEvent(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readEvent(r)
	if err != nil {
		fail(w, err)
		return
	}
	if s.withHandle(w, r, func(h *adapter.Handle) error { return h.AddEvent(raw) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	raw, err := s.readEvent(r)
	if err != nil {
		fail(w, err)
		return
	}
	if s.withHandle(w, r, func(h *adapter.Handle) error { return h.UpdateEvent(raw) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleRemoveEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "eventId")
	s.store.Delete(id)
	if s.withHandle(w, r, func(h *adapter.Handle) error { return h.RemoveEvent(id) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

type rangeBody struct {
	Events json.RawMessage `json:"events"`
	Start  string          `json:"start"`
	End    string          `json:"end"`
}

// handleRange pushes events for a range to the calendar, as the server's
// reply to an updateRange call would.
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	var body rangeBody
	if err := readBody(r, &body); err != nil {
		fail(w, err)
		return
	}
	if s.withHandle(w, r, func(h *adapter.Handle) error {
		return h.OnUpdateRange(rawString(body.Events), body.Start, body.End)
	}) {
		w.WriteHeader(http.StatusNoContent)
	}
}

type interactionBody struct {
	ID    string   `json:"id"`
	At    string   `json:"at"`
	Start string   `json:"start"`
	End   string   `json:"end"`
	Date  string   `json:"date"`
	View  string   `json:"view"`
	Dates []string `json:"dates"`
}

// interactions simulate what a user does in the rendered calendar. Times
// are wall-clock strings in the calendar's zone.
var interactions = map[string]func(r *http.Request, h *adapter.Handle, b interactionBody) (any, error){
	"click": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		return nil, h.Calendar().ClickEvent(b.ID)
	},
	"drag": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		at, err := temporal.ToZoned(b.At, h.Location())
		if err != nil {
			return nil, err
		}
		return nil, h.Calendar().DragEvent(b.ID, at)
	},
	"resize": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		at, err := temporal.ToZoned(b.At, h.Location())
		if err != nil {
			return nil, err
		}
		return nil, h.Calendar().ResizeEvent(b.ID, at)
	},
	"select-date": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		d, err := temporal.ParseDate(b.Date)
		if err != nil {
			return nil, err
		}
		return nil, h.Calendar().SelectDate(d)
	},
	"change-view": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		return nil, h.Calendar().ChangeView(b.View)
	},
	"mouse-down-time": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		at, err := temporal.ToZoned(b.At, h.Location())
		if err != nil {
			return nil, err
		}
		return nil, h.Calendar().MouseDownDateTime(at)
	},
	"mouse-down-month-date": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		d, err := temporal.ParseDate(b.Date)
		if err != nil {
			return nil, err
		}
		return nil, h.Calendar().MouseDownMonthGridDate(d)
	},
	"mouse-down-date": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		d, err := temporal.ParseDate(b.Date)
		if err != nil {
			return nil, err
		}
		return nil, h.Calendar().MouseDownDateGridDate(d)
	},
	"scroll-resources": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		dates := make([]time.Time, 0, len(b.Dates))
		for _, raw := range b.Dates {
			t, err := temporal.ToZoned(raw, h.Location())
			if err != nil {
				return nil, err
			}
			dates = append(dates, t)
		}
		return nil, h.Calendar().ScrollResources(dates)
	},
	"draw-to": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		at, err := temporal.ToZoned(b.At, h.Location())
		if err != nil {
			return nil, err
		}
		return nil, h.Calendar().DrawTo(at)
	},
	"finish-draw": func(r *http.Request, h *adapter.Handle, _ interactionBody) (any, error) {
		ev, kept, err := h.Calendar().FinishDraw(r.Context())
		if err != nil {
			return nil, err
		}
		return map[string]any{"event": ev, "kept": kept}, nil
	},
	"move-scheduling-slot": func(_ *http.Request, h *adapter.Handle, b interactionBody) (any, error) {
		start, err := temporal.ToZoned(b.Start, h.Location())
		if err != nil {
			return nil, err
		}
		end, err := temporal.ToZoned(b.End, h.Location())
		if err != nil {
			return nil, err
		}
		return nil, h.Calendar().MoveSchedulingSlot(start, end)
	},
}

func (s *Server) handleInteraction(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	interact, ok := interactions[kind]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown interaction "+strconv.Quote(kind))
		return
	}
	var body interactionBody
	if err := readBody(r, &body); err != nil {
		fail(w, err)
		return
	}
	var out any
	if s.withHandle(w, r, func(h *adapter.Handle) error {
		var err error
		out, err = interact(r, h, body)
		return err
	}) {
		if out == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	c, ok := s.container(chi.URLParam(r, "id"))
	if !ok {
		fail(w, errNoContainer)
		return
	}
	feed, calls := c.drain()
	writeJSON(w, http.StatusOK, map[string]any{"notifications": feed, "calls": calls})
}
