package model

import (
	"time"

	"datepick/internal/calendar"
)

// Occurrence is a single concrete instance of an annotation event after
// recurrence expansion, normalized into the picker's display timezone.
type Occurrence struct {
	SourceID string // annotation source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies one occurrence of a recurring event.
	InstanceKey string

	Summary string

	AllDay bool

	// Blackout marks occurrences whose days must not be offered for
	// selection.
	Blackout bool

	// Start / End are in the display timezone. End is exclusive.
	Start time.Time
	End   time.Time
}

// Days returns the start of every calendar day the occurrence touches.
// A zero-length occurrence still covers its start day.
func (o Occurrence) Days() []time.Time {
	loc := o.Start.Location()
	first := calendar.Midnight(o.Start)

	end := o.End.In(loc)
	if !end.After(o.Start) {
		return []time.Time{first}
	}
	// Exclusive end: an event ending exactly at midnight does not touch
	// the following day.
	last := calendar.Midnight(end)
	if end.Equal(last) {
		ly, lm, ld := last.Date()
		last = calendar.StartOfDay(ly, lm, ld-1, loc)
	}

	fy, fm, fd := first.Date()
	var days []time.Time
	for i := 0; ; i++ {
		d := calendar.StartOfDay(fy, fm, fd+i, loc)
		if d.After(last) {
			break
		}
		days = append(days, d)
	}
	if len(days) == 0 {
		days = append(days, first)
	}
	return days
}

// Clip trims the occurrence to the whole days of [from, to], so Days never
// walks past the window it was expanded for. Zero bounds are open.
func (o Occurrence) Clip(from, to time.Time) Occurrence {
	loc := o.Start.Location()
	if !from.IsZero() {
		if lo := calendar.Midnight(from.In(loc)); o.Start.Before(lo) {
			o.Start = lo
		}
	}
	if !to.IsZero() {
		ty, tm, td := to.In(loc).Date()
		if hi := calendar.StartOfDay(ty, tm, td+1, loc); o.End.After(hi) {
			o.End = hi
		}
	}
	return o
}
