package picker

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Field is one steppable part of the selected time.
type Field int

const (
	Hours Field = iota
	Minutes
	Suffix
)

// Placeholder is shown for every field while nothing is selected.
const Placeholder = "-"

func (f Field) String() string {
	switch f {
	case Hours:
		return "hours"
	case Minutes:
		return "minutes"
	case Suffix:
		return "suffix"
	default:
		return "field(" + strconv.Itoa(int(f)) + ")"
	}
}

// ParseField maps "hours", "minutes" or "suffix" to a Field.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hours", "hour", "h":
		return Hours, nil
	case "minutes", "minute", "m":
		return Minutes, nil
	case "suffix", "ampm", "meridiem":
		return Suffix, nil
	}
	return 0, fmt.Errorf("picker: unknown field %q", s)
}

// Fields lists the fields a picker shows: the AM/PM suffix only appears in
// 12-hour mode.
func (c *Controller) Fields() []Field {
	if c.military {
		return []Field{Hours, Minutes}
	}
	return []Field{Hours, Minutes, Suffix}
}

// Get reads a field from the selection. The suffix reads 0 for AM and 1
// for PM.
func (c *Controller) Get(f Field) (int, bool) {
	if !c.hasSelected {
		return 0, false
	}
	return fieldValue(c.selected, f), true
}

// Set writes v into a field of the selection, carrying overflow into the
// larger units. For the suffix v is ignored and the half of day is flipped.
// With nothing selected Set falls back to SelectNow.
func (c *Controller) Set(f Field, v int) {
	if !c.hasSelected {
		c.SelectNow()
		return
	}
	c.setSelected(withField(c.selected, f, v))
}

// Next steps a field forward by one. It returns false when the result would
// leave [min, max], leaving the selection unchanged.
func (c *Controller) Next(f Field) bool {
	if !c.hasSelected {
		return c.SelectNow()
	}
	if c.WouldExceedMax(f) {
		return false
	}
	c.setSelected(step(c.selected, f, 1))
	return true
}

// Prev steps a field back by one. It returns false when the result would
// leave [min, max], leaving the selection unchanged.
func (c *Controller) Prev(f Field) bool {
	if !c.hasSelected {
		return c.SelectNow()
	}
	if c.WouldViolateMin(f) {
		return false
	}
	c.setSelected(step(c.selected, f, -1))
	return true
}

// WouldExceedMax reports whether Next(f) would land outside [min, max].
// Hours and minutes can only cross max going forward, but the suffix flip
// moves a PM time twelve hours back and may cross min instead.
func (c *Controller) WouldExceedMax(f Field) bool {
	return !c.InRange(c.candidate(f, 1))
}

// WouldViolateMin reports whether Prev(f) would land outside [min, max].
func (c *Controller) WouldViolateMin(f Field) bool {
	return !c.InRange(c.candidate(f, -1))
}

func (c *Controller) candidate(f Field, delta int) time.Time {
	if !c.hasSelected {
		return c.clock()
	}
	return step(c.selected, f, delta)
}

// DisplayHour is the hour as shown: 1–12 in 12-hour mode, 0–23 otherwise.
func (c *Controller) DisplayHour() (int, bool) {
	if !c.hasSelected {
		return 0, false
	}
	h := c.selected.Hour()
	if c.military {
		return h, true
	}
	return hour12(h), true
}

// Text renders a field for display. The suffix renders as Placeholder in
// 24-hour mode, where Fields omits it.
func (c *Controller) Text(f Field) string {
	if !c.hasSelected {
		return Placeholder
	}
	switch f {
	case Hours:
		h, _ := c.DisplayHour()
		return pad2(h)
	case Minutes:
		return pad2(c.selected.Minute())
	case Suffix:
		if c.military {
			return Placeholder
		}
		return c.labels.Meridiem[fieldValue(c.selected, Suffix)]
	}
	return Placeholder
}

func hour12(h int) int {
	switch {
	case h == 0:
		return 12
	case h > 12:
		h -= 12
	}
	if h < 0 {
		h = -h
	}
	return h
}

func pad2(n int) string {
	if n < 0 {
		n = -n
	}
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func fieldValue(t time.Time, f Field) int {
	switch f {
	case Hours:
		return t.Hour()
	case Minutes:
		return t.Minute()
	case Suffix:
		if t.Hour() < 12 {
			return 0
		}
		return 1
	}
	return 0
}

// withField rebuilds t with one field replaced. time.Date normalizes out of
// range values, so hour 24 becomes midnight of the next day.
func withField(t time.Time, f Field, v int) time.Time {
	y, mo, d := t.Date()
	h, mi := t.Hour(), t.Minute()
	switch f {
	case Hours:
		h = v
	case Minutes:
		mi = v
	case Suffix:
		if h < 12 {
			h += 12
		} else {
			h -= 12
		}
	}
	return time.Date(y, mo, d, h, mi, t.Second(), t.Nanosecond(), t.Location())
}

func step(t time.Time, f Field, delta int) time.Time {
	if f == Suffix {
		return withField(t, Suffix, 0)
	}
	return withField(t, f, fieldValue(t, f)+delta)
}
