package calconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	appLog "sxcal/internal/log"
	"sxcal/internal/temporal"
)

// ErrUnknownView is returned when defaultView names no view of the variant.
var ErrUnknownView = errors.New("unknown view")

// Process decodes raw and normalizes it for the widget. selectedDate, minDate
// and maxDate are parsed into plain dates; a malformed date is logged and
// kept as the original string. defaultView is mapped from its logical name to
// the native view name through viewNameMap.
func Process(raw string, viewNameMap map[string]string) (Configuration, error) {
	var cfg Configuration
	if strings.TrimSpace(raw) == "" {
		return cfg, nil
	}
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Configuration{}, fmt.Errorf("decode configuration: %w", err)
	}

	dates := []struct {
		name  string
		field *temporal.DateField
	}{
		{"selectedDate", &cfg.SelectedDate},
		{"minDate", &cfg.MinDate},
		{"maxDate", &cfg.MaxDate},
	}
	for _, d := range dates {
		if err := d.field.Normalize(); err != nil {
			appLog.Error("failed to parse "+d.name, err, "value", d.field.Text())
		}
	}

	if cfg.DefaultView != "" {
		native, ok := viewNameMap[cfg.DefaultView]
		if !ok {
			return Configuration{}, fmt.Errorf("defaultView %q: %w", cfg.DefaultView, ErrUnknownView)
		}
		cfg.DefaultView = native
	}

	return cfg, nil
}
