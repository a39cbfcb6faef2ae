// Package calconfig turns the server's JSON calendar configuration into the
// widget configuration.
package calconfig

import (
	"encoding/json"
	"time"

	appLog "sxcal/internal/log"
	"sxcal/internal/temporal"
)

// Configuration is the widget configuration. DefaultView holds the native
// view name once processed. Keys without a typed field are kept in Extra.
type Configuration struct {
	DefaultView    string             `json:"defaultView,omitempty"`
	SelectedDate   temporal.DateField `json:"selectedDate"`
	MinDate        temporal.DateField `json:"minDate"`
	MaxDate        temporal.DateField `json:"maxDate"`
	Locale         string             `json:"locale,omitempty"`
	Timezone       string             `json:"timezone,omitempty"`
	FirstDayOfWeek *int               `json:"firstDayOfWeek,omitempty"`
	IsDark         *bool              `json:"isDark,omitempty"`

	DayBoundaries    *DayBoundaries    `json:"dayBoundaries,omitempty"`
	WeekOptions      *WeekOptions      `json:"weekOptions,omitempty"`
	MonthGridOptions *MonthGridOptions `json:"monthGridOptions,omitempty"`
	DrawOptions      *DrawOptions      `json:"drawOptions,omitempty"`
	ICal             *ICalSource       `json:"iCal,omitempty"`

	ShowWeekNumbers *bool `json:"showWeekNumbers,omitempty"`
	IsResponsive    *bool `json:"isResponsive,omitempty"`
	SkipValidation  *bool `json:"skipValidation,omitempty"`

	// Minutes; one of 15, 30 or 60.
	ResizeInterval      *int `json:"resizeInterval,omitempty"`
	DragAndDropInterval *int `json:"dragAndDropInterval,omitempty"`

	CurrentTimeIndicatorConfig *CurrentTimeIndicatorConfig `json:"currentTimeIndicatorConfig,omitempty"`
	ScrollControllerConfig     *ScrollControllerConfig     `json:"scrollControllerConfig,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// DayBoundaries limits the hours shown in timed grids, as "HH:mm".
type DayBoundaries struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type WeekOptions struct {
	GridHeight            *int              `json:"gridHeight,omitempty"`
	NDays                 *int              `json:"nDays,omitempty"`
	EventWidth            *int              `json:"eventWidth,omitempty"`
	TimeAxisFormatOptions map[string]string `json:"timeAxisFormatOptions,omitempty"`
	EventOverlap          *bool             `json:"eventOverlap,omitempty"`
}

type MonthGridOptions struct {
	NEventsPerDay *int `json:"nEventsPerDay,omitempty"`
}

type DrawOptions struct {
	// SnapDrawDuration is in minutes.
	SnapDrawDuration *int   `json:"snapDrawDuration,omitempty"`
	DefaultTitle     string `json:"defaultTitle,omitempty"`
}

// ICalSource is iCalendar text to import, not a URL.
type ICalSource struct {
	ICal string `json:"iCal"`
}

type CurrentTimeIndicatorConfig struct {
	FullWeekWidth  *bool `json:"fullWeekWidth,omitempty"`
	TimeZoneOffset *int  `json:"timeZoneOffset,omitempty"`
}

type ScrollControllerConfig struct {
	// InitialScroll is "HH:mm".
	InitialScroll string `json:"initialScroll,omitempty"`
}

// Location resolves Timezone, falling back to UTC when it is empty or unknown.
func (c Configuration) Location() *time.Location {
	loc, err := temporal.LoadZone(c.Timezone)
	if err != nil {
		appLog.Error("unknown timezone, using UTC", err, "timezone", c.Timezone)
		return time.UTC
	}
	return loc
}

// FirstWeekday is the configured first day of the week, Monday by default.
func (c Configuration) FirstWeekday() time.Weekday {
	if c.FirstDayOfWeek == nil || *c.FirstDayOfWeek < 0 || *c.FirstDayOfWeek > 6 {
		return time.Monday
	}
	return time.Weekday(*c.FirstDayOfWeek)
}

func intervalOr(v *int, def int) int {
	if v == nil {
		return def
	}
	switch *v {
	case 15, 30, 60:
		return *v
	}
	return def
}

// DragAndDropMinutes is the snapping interval of drag-and-drop.
func (c Configuration) DragAndDropMinutes() int { return intervalOr(c.DragAndDropInterval, 15) }

// ResizeMinutes is the snapping interval of resizing.
func (c Configuration) ResizeMinutes() int { return intervalOr(c.ResizeInterval, 15) }

type configAlias Configuration

var knownKeys = []string{
	"defaultView", "selectedDate", "minDate", "maxDate", "locale", "timezone",
	"firstDayOfWeek", "isDark", "dayBoundaries", "weekOptions", "monthGridOptions",
	"drawOptions", "iCal", "showWeekNumbers", "isResponsive", "skipValidation",
	"resizeInterval", "dragAndDropInterval", "currentTimeIndicatorConfig",
	"scrollControllerConfig",
}

func (c *Configuration) UnmarshalJSON(b []byte) error {
	var a configAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	for _, k := range knownKeys {
		delete(all, k)
	}
	if len(all) > 0 {
		a.Extra = all
	}
	*c = Configuration(a)
	return nil
}

func (c Configuration) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(configAlias(c))
	if err != nil {
		return nil, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(base, &all); err != nil {
		return nil, err
	}
	for k, v := range all {
		if string(v) == "null" {
			delete(all, k)
		}
	}
	for k, v := range c.Extra {
		if _, known := all[k]; !known {
			all[k] = v
		}
	}
	return json.Marshal(all)
}
