package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"sxcal/internal/signal"
	"sxcal/internal/temporal"
)

// Resource is a lane of the resource scheduler. IsOpen is observable so the
// scheduler can react when a grouped resource is expanded or collapsed.
type Resource struct {
	ID          string           `json:"id"`
	Label       string           `json:"label,omitempty"`
	LabelHTML   string           `json:"labelHTML,omitempty"`
	ColorName   string           `json:"colorName,omitempty"`
	LightColors *ColorDefinition `json:"lightColors,omitempty"`
	DarkColors  *ColorDefinition `json:"darkColors,omitempty"`
	Resources   []*Resource      `json:"resources,omitempty"`

	IsOpen *signal.Field[bool] `json:"-"`
}

type resourceWire struct {
	ID          string           `json:"id"`
	Label       string           `json:"label,omitempty"`
	LabelHTML   string           `json:"labelHTML,omitempty"`
	ColorName   string           `json:"colorName,omitempty"`
	LightColors *ColorDefinition `json:"lightColors,omitempty"`
	DarkColors  *ColorDefinition `json:"darkColors,omitempty"`
	Resources   []resourceWire   `json:"resources,omitempty"`
	IsOpen      *bool            `json:"isOpen,omitempty"`
}

func (w resourceWire) resource(b *signal.Batcher) *Resource {
	open := true
	if w.IsOpen != nil {
		open = *w.IsOpen
	}
	r := &Resource{
		ID:          w.ID,
		Label:       w.Label,
		LabelHTML:   w.LabelHTML,
		ColorName:   w.ColorName,
		LightColors: w.LightColors,
		DarkColors:  w.DarkColors,
		IsOpen:      signal.NewField(b, open),
	}
	for _, child := range w.Resources {
		r.Resources = append(r.Resources, child.resource(b))
	}
	return r
}

func (r *Resource) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.wire())
}

func (r *Resource) wire() resourceWire {
	w := resourceWire{
		ID:          r.ID,
		Label:       r.Label,
		LabelHTML:   r.LabelHTML,
		ColorName:   r.ColorName,
		LightColors: r.LightColors,
		DarkColors:  r.DarkColors,
	}
	if r.IsOpen != nil {
		open := r.IsOpen.Get()
		w.IsOpen = &open
	}
	for _, child := range r.Resources {
		w.Resources = append(w.Resources, child.wire())
	}
	return w
}

// FindResource returns the resource with id, searching nested resources depth first.
func FindResource(resources []*Resource, id string) *Resource {
	for _, r := range resources {
		if r.ID == id {
			return r
		}
		if found := FindResource(r.Resources, id); found != nil {
			return found
		}
	}
	return nil
}

// ResourceConfig describes the resource scheduler layout. Unset options are
// nil so the scheduler keeps its own defaults.
type ResourceConfig struct {
	HourWidth      *int        `json:"hourWidth,omitempty"`
	DayWidth       *int        `json:"dayWidth,omitempty"`
	Resources      []*Resource `json:"resources,omitempty"`
	ResourceHeight *int        `json:"resourceHeight,omitempty"`
	EventHeight    *int        `json:"eventHeight,omitempty"`
	DragAndDrop    *bool       `json:"dragAndDrop,omitempty"`
	Resize         *bool       `json:"resize,omitempty"`
	InfiniteScroll *bool       `json:"infiniteScroll,omitempty"`

	// InitialHours lists every hour between the configured start and end.
	InitialHours []time.Time `json:"initialHours,omitempty"`
	// InitialDays lists every date between the configured start and end.
	InitialDays []temporal.PlainDate `json:"initialDays,omitempty"`
}

type resourceConfigWire struct {
	HourWidth      *int           `json:"hourWidth"`
	DayWidth       *int           `json:"dayWidth"`
	Resources      []resourceWire `json:"resources"`
	ResourceHeight *int           `json:"resourceHeight"`
	EventHeight    *int           `json:"eventHeight"`
	DragAndDrop    *bool          `json:"dragAndDrop"`
	Resize         *bool          `json:"resize"`
	InfiniteScroll *bool          `json:"infiniteScroll"`
	InitialHours   string         `json:"initialHours"`
	InitialDays    string         `json:"initialDays"`
}

// DecodeResourceConfig parses the resource scheduler configuration. Empty
// input or "{}" yields nil. Hour ranges are read as wall-clock times in loc.
func DecodeResourceConfig(raw string, loc *time.Location, b *signal.Batcher) (*ResourceConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" || raw == "null" {
		return nil, nil
	}
	// Empty strings mean "not set", whatever the option's type.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode resource config: %w", err)
	}
	for k, v := range fields {
		if string(v) == `""` {
			delete(fields, k)
		}
	}
	cleaned, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("decode resource config: %w", err)
	}
	var w resourceConfigWire
	if err := json.Unmarshal(cleaned, &w); err != nil {
		return nil, fmt.Errorf("decode resource config: %w", err)
	}

	rc := &ResourceConfig{
		HourWidth:      w.HourWidth,
		DayWidth:       w.DayWidth,
		ResourceHeight: w.ResourceHeight,
		EventHeight:    w.EventHeight,
		DragAndDrop:    w.DragAndDrop,
		Resize:         w.Resize,
		InfiniteScroll: w.InfiniteScroll,
	}
	for _, r := range w.Resources {
		rc.Resources = append(rc.Resources, r.resource(b))
	}

	if w.InitialHours != "" {
		start, end, err := splitRange(w.InitialHours)
		if err != nil {
			return nil, fmt.Errorf("initialHours: %w", err)
		}
		s, err := temporal.ToZoned(start, loc)
		if err != nil {
			return nil, fmt.Errorf("initialHours: %w", err)
		}
		e, err := temporal.ToZoned(end, loc)
		if err != nil {
			return nil, fmt.Errorf("initialHours: %w", err)
		}
		rc.InitialHours = HoursBetween(s, e)
	}
	if w.InitialDays != "" {
		start, end, err := splitRange(w.InitialDays)
		if err != nil {
			return nil, fmt.Errorf("initialDays: %w", err)
		}
		s, err := temporal.ParseDate(start)
		if err != nil {
			return nil, fmt.Errorf("initialDays: %w", err)
		}
		e, err := temporal.ParseDate(end)
		if err != nil {
			return nil, fmt.Errorf("initialDays: %w", err)
		}
		rc.InitialDays = DaysBetween(s, e)
	}
	return rc, nil
}

func splitRange(v string) (string, string, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected \"start,end\", got %q", v)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

// HoursBetween returns the whole hours from start (truncated) to end inclusive.
func HoursBetween(start, end time.Time) []time.Time {
	var out []time.Time
	h := time.Date(start.Year(), start.Month(), start.Day(), start.Hour(), 0, 0, 0, start.Location())
	for !h.After(end) {
		out = append(out, h)
		h = h.Add(time.Hour)
	}
	return out
}

// DaysBetween returns the dates from start to end inclusive.
func DaysBetween(start, end temporal.PlainDate) []temporal.PlainDate {
	var out []temporal.PlainDate
	for d := start; !d.After(end); d = d.AddDays(1) {
		out = append(out, d)
	}
	return out
}

// SchedulingAssistantConfig is the tentative slot the assistant starts with,
// both boundaries in "yyyy-MM-dd HH:mm".
type SchedulingAssistantConfig struct {
	InitialStart string `json:"initialStart"`
	InitialEnd   string `json:"initialEnd"`
}

// DecodeSchedulingAssistantConfig returns nil for empty input or "{}".
func DecodeSchedulingAssistantConfig(raw string) (*SchedulingAssistantConfig, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "{}" || raw == "null" {
		return nil, nil
	}
	var c SchedulingAssistantConfig
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode scheduling assistant config: %w", err)
	}
	return &c, nil
}

// LazyLoadDayRange is the range requested when the hourly scheduler scrolls
// into dates. A single date extends to the end of that day (UTC).
func LazyLoadDayRange(dates []time.Time) (Range, bool) {
	if len(dates) == 0 {
		return Range{}, false
	}
	start := dates[0].UTC()
	if len(dates) == 1 {
		end := time.Date(start.Year(), start.Month(), start.Day(), 23, 59, 59, 999_000_000, time.UTC)
		return Range{Start: start, End: end}, true
	}
	return Range{Start: start, End: dates[len(dates)-1].UTC()}, true
}

// LazyLoadMonthRange is the daily-scheduler counterpart of LazyLoadDayRange:
// a single date extends to the last day of its month.
func LazyLoadMonthRange(dates []time.Time) (Range, bool) {
	if len(dates) == 0 {
		return Range{}, false
	}
	start := dates[0].UTC()
	if len(dates) == 1 {
		end := time.Date(start.Year(), start.Month()+1, 0, 23, 59, 59, 999_000_000, time.UTC)
		return Range{Start: start, End: end}, true
	}
	return Range{Start: start, End: dates[len(dates)-1].UTC()}, true
}
