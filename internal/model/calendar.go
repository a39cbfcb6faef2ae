package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ColorDefinition is the palette of one calendar for light or dark mode.
type ColorDefinition struct {
	Main        string `json:"main"`
	Container   string `json:"container"`
	OnContainer string `json:"onContainer"`
}

// Calendar is a calendar/category definition events refer to by calendarId.
type Calendar struct {
	ID          string           `json:"id,omitempty"`
	ColorName   string           `json:"colorName"`
	Label       string           `json:"label,omitempty"`
	LightColors *ColorDefinition `json:"lightColors,omitempty"`
	DarkColors  *ColorDefinition `json:"darkColors,omitempty"`
}

// DecodeCalendars accepts either an object keyed by calendar id or an array
// of calendars carrying their own id. Empty input is an empty set.
func DecodeCalendars(raw string) (map[string]Calendar, error) {
	out := map[string]Calendar{}
	b := bytes.TrimSpace([]byte(raw))
	if len(b) == 0 || string(b) == "null" {
		return out, nil
	}

	if b[0] == '[' {
		var list []Calendar
		if err := json.Unmarshal(b, &list); err != nil {
			return nil, fmt.Errorf("decode calendars: %w", err)
		}
		for i, c := range list {
			if c.ID == "" {
				return nil, fmt.Errorf("decode calendars: entry %d has no id", i)
			}
			out[c.ID] = c
		}
		return out, nil
	}

	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode calendars: %w", err)
	}
	for id, c := range out {
		c.ID = id
		out[id] = c
	}
	return out, nil
}
