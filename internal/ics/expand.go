package ics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	appLog "sxcal/internal/log"
	"sxcal/internal/model"
	"sxcal/internal/temporal"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone all occurrences are converted to.
	// If nil, UTC is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window for occurrences.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap against unbounded rules.
	// If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded occurrences and the UIDs that were
// truncated by the cap.
type ExpandResult struct {
	Occurrences     []model.Occurrence
	TruncatedEvents []string
}

// ExpandOccurrences expands parsed events into concrete occurrences within
// the configured range. It handles single events, RRULE recurrence, EXDATE
// exceptions and RECURRENCE-ID overrides. Occurrences are sorted by start.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.UTC
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Group base events and overrides by UID.
	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	var uids []string
	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	for _, uid := range uids {
		ov := overridesByUID[uid]
		truncated := false
		for _, ev := range baseByUID[uid] {
			occ, hitCap := expandEvent(ev, ov, cfg)
			truncated = truncated || hitCap
			result.Occurrences = append(result.Occurrences, occ...)
		}
		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	sort.SliceStable(result.Occurrences, func(i, j int) bool {
		return result.Occurrences[i].Start.Before(result.Occurrences[j].Start)
	})
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	if !timeRangesOverlap(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	start, end := ev.Start, ev.End
	if o, ok := findOverrideForStart(overrides, start); ok {
		start, end, ev = o.Start, o.End, o
	}
	return []model.Occurrence{makeOccurrence(ev, start, end, "", cfg.DisplayLocation)}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	set, err := ruleSet(ev)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}

	loc := ev.Start.Location()
	dur := ev.End.Sub(ev.Start)
	days := 0
	if ev.AllDay {
		days = dayDiff(ev.Start, ev.End)
		if days < 1 {
			days = 1
		}
	}

	// Widen the lower bound so occurrences starting before the range but
	// still running into it are kept.
	occTimes := set.Between(cfg.RangeStart.In(loc).Add(-dur), cfg.RangeEnd.In(loc), true)

	hitCap := false
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Occurrence, 0, len(occTimes))
	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			occStart = time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, loc)
			occEnd = occStart.AddDate(0, 0, days)
		} else {
			occEnd = occStart.Add(dur)
		}
		if !timeRangesOverlap(occStart, occEnd, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}

		key := occStart.In(cfg.DisplayLocation).Format(time.RFC3339)
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			out = append(out, makeOccurrence(o, o.Start, o.End, key, cfg.DisplayLocation))
			continue
		}
		out = append(out, makeOccurrence(ev, occStart, occEnd, key, cfg.DisplayLocation))
	}
	return out, hitCap
}

func ruleSet(ev ParsedEvent) (*rrule.Set, error) {
	opt, err := rrule.StrToROptionInLocation(strings.TrimPrefix(ev.RawRRule, "RRULE:"), ev.Start.Location())
	if err != nil {
		return nil, err
	}
	opt.Dtstart = ev.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}
	return set, nil
}

func dayDiff(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// findOverrideForStart finds an override whose RECURRENCE-ID equals start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func makeOccurrence(ev ParsedEvent, start, end time.Time, key string, displayLoc *time.Location) model.Occurrence {
	occ := model.Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: key,
		Summary:     ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		AllDay:      ev.AllDay,
		Start:       start.In(displayLoc),
		End:         end.In(displayLoc),
	}
	if ev.AllDay {
		// Keep the calendar dates of all-day occurrences.
		occ.Start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, displayLoc)
		occ.End = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, displayLoc)
	}
	return occ
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if !aEnd.After(aStart) {
		// Zero-length events occupy their start instant.
		return !aStart.Before(bStart) && !aStart.After(bEnd)
	}
	return !aStart.After(bEnd) && aEnd.After(bStart)
}

// ExpandEvent expands a widget event carrying an RRULE into the instances
// that intersect [rangeStart, rangeEnd]. Instances copy every field of the
// series except the id, which gets an "@<start>" suffix, and the rule itself.
func ExpandEvent(ev model.Event, rangeStart, rangeEnd time.Time, loc *time.Location) ([]model.Event, error) {
	if ev.RRule == "" {
		return nil, fmt.Errorf("event %s has no rrule", ev.ID)
	}
	if loc == nil {
		loc = time.UTC
	}
	if ev.Start.Kind() != ev.End.Kind() || (!ev.Start.IsDate() && !ev.Start.IsZoned()) {
		return nil, fmt.Errorf("event %s: unsupported boundaries %q/%q", ev.ID, ev.Start, ev.End)
	}

	pe := ParsedEvent{
		Source:   Source{ID: ev.CalendarID},
		UID:      ev.ID,
		Summary:  ev.Title,
		AllDay:   ev.Start.IsDate(),
		RawRRule: ev.RRule,
		Start:    ev.Start.At(loc),
		End:      ev.End.At(loc),
	}
	if pe.AllDay {
		// Widget dates are inclusive, iCalendar ends are exclusive.
		pe.End = ev.End.Date().AddDays(1).In(loc)
	}
	for _, raw := range ev.ExDates {
		t, err := parseExDate(raw, pe.Start.Location())
		if err != nil {
			appLog.Error("skipping unparsable exdate", err, "id", ev.ID, "exdate", raw)
			continue
		}
		pe.ExDates = append(pe.ExDates, t)
	}

	res, err := ExpandOccurrences([]ParsedEvent{pe}, ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.Event, 0, len(res.Occurrences))
	for _, occ := range res.Occurrences {
		inst := ev.Clone()
		inst.RRule = ""
		inst.ExDates = nil
		shaped := occ.Event()
		inst.ID = shaped.ID
		inst.Start = shaped.Start
		inst.End = shaped.End
		out = append(out, inst)
	}
	return out, nil
}

// parseExDate accepts the iCalendar basic form as well as the widget's
// "yyyy-MM-dd[ HH:mm]" form.
func parseExDate(raw string, loc *time.Location) (time.Time, error) {
	if t, err := parseICSTime(raw, loc); err == nil {
		return t, nil
	}
	return temporal.ToZoned(raw, loc)
}
