package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"datepick/internal/calendar"
	appLog "datepick/internal/log"
	"datepick/internal/model"
)

const defaultMaxOccurrencesPerEvent = 2000

// ExpandConfig bounds recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is where occurrences are normalized. Nil means
	// time.Local.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd are inclusive.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps runaway rules. Zero uses the default.
	MaxOccurrencesPerEvent int
}

// ExpandOccurrences turns parsed events into concrete occurrences within the
// configured window. RRULE, EXDATE and RECURRENCE-ID overrides are honored.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	// Overrides are keyed by source as well: two feeds may reuse a UID.
	type key struct{ source, uid string }
	overrides := make(map[key][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride() {
			k := key{ev.Source.ID, ev.UID}
			overrides[k] = append(overrides[k], ev)
		}
	}

	out := make([]model.Occurrence, 0, len(events))
	for _, ev := range events {
		if ev.IsOverride() {
			continue
		}
		ov := overrides[key{ev.Source.ID, ev.UID}]
		if ev.RawRRule == "" {
			out = append(out, expandSingle(ev, ov, cfg)...)
			continue
		}
		occ, capped := expandRecurring(ev, ov, cfg)
		if capped {
			appLog.Warn("expand: occurrences truncated", "uid", ev.UID, "cap", cfg.MaxOccurrencesPerEvent)
		}
		out = append(out, occ...)
	}
	for i := range out {
		out[i] = out[i].Clip(cfg.RangeStart, cfg.RangeEnd)
	}
	return out, nil
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	start, end := ev.Start, ev.End
	if o, ok := findOverride(overrides, start); ok {
		ev, start, end = o, o.Start, o.End
	}
	if !overlaps(start, end, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []model.Occurrence{makeOccurrence(ev, start, end, cfg.DisplayLocation)}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: bad RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	loc := ev.Start.Location()
	starts := set.Between(cfg.RangeStart.In(loc), cfg.RangeEnd.In(loc), true)

	capped := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		capped = true
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]model.Occurrence, 0, len(starts))
	for _, s := range starts {
		base, start, end := ev, s, s.Add(dur)
		if ev.AllDay {
			sy, sm, sd := s.Date()
			start = calendar.StartOfDay(sy, sm, sd, s.Location())
			end = calendar.StartOfDay(sy, sm, sd+daysSpanned(ev), s.Location())
		}
		if o, ok := findOverride(overrides, s); ok {
			base, start, end = o, o.Start, o.End
		}
		out = append(out, makeOccurrence(base, start, end, cfg.DisplayLocation))
	}
	return out, capped
}

// daysSpanned is the length of an all-day event in whole days, at least 1.
func daysSpanned(ev ParsedEvent) int {
	n := int(ev.End.Sub(ev.Start).Hours()+12) / 24
	if n < 1 {
		return 1
	}
	return n
}

func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, o := range overrides {
		if o.Recurrence != nil && o.Recurrence.Equal(start) {
			return o, true
		}
	}
	return ParsedEvent{}, false
}

// makeOccurrence normalizes an occurrence into loc. All-day events keep
// their calendar dates rather than shifting with the zone offset.
func makeOccurrence(ev ParsedEvent, start, end time.Time, loc *time.Location) model.Occurrence {
	if ev.AllDay {
		start = calendar.StartOfDay(start.Year(), start.Month(), start.Day(), loc)
		end = calendar.StartOfDay(end.Year(), end.Month(), end.Day(), loc)
	} else {
		start = start.In(loc)
		end = end.In(loc)
	}
	return model.Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: start.Format(time.RFC3339Nano),
		Summary:     ev.Summary,
		AllDay:      ev.AllDay,
		Blackout:    ev.Source.Blackout,
		Start:       start,
		End:         end,
	}
}

func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aEnd.Before(bStart) && !bEnd.Before(aStart)
}
