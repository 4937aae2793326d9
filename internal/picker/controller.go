// Package picker holds the selection state of a date/time picker: the month
// being viewed, the chosen instant, and the rules that move them.
//
// All wall-clock arithmetic happens in one location fixed at construction.
// Every instant handed to the controller is converted into it first.
package picker

import (
	"errors"
	"fmt"
	"time"

	"datepick/internal/calendar"
	appLog "datepick/internal/log"
)

// ErrInvalidRange is returned by New when min is after max.
var ErrInvalidRange = errors.New("min is after max")

// Annotator supplies per-day marks and blackout days. It must be safe to
// call from whichever goroutine drives the controller.
type Annotator interface {
	Annotate(day time.Time) []string
	Blocked(day time.Time) bool
}

// Config is everything a Controller is built from.
type Config struct {
	// Current is the initially viewed month. Defaults to now.
	Current *time.Time
	// Selected is the initial selection, if any. It is not announced to
	// observers.
	Selected *time.Time

	Deselectable bool

	// Min / Max bound selection inclusively. Either may be nil.
	Min *time.Time
	Max *time.Time

	// MilitaryTime switches hour display to 24-hour and drops the
	// AM/PM field.
	MilitaryTime bool

	WeekStart time.Weekday

	// Location is the wall-clock zone for all arithmetic. Defaults to
	// time.Local.
	Location *time.Location

	// Labels blanks are filled from calendar.DefaultLabels.
	Labels calendar.Labels

	// Now defaults to time.Now.
	Now func() time.Time

	// OnChange, when set, is registered as the first observer.
	OnChange func(selected *time.Time)

	Annotator Annotator
}

// Controller owns the viewed month and the selection. It is not safe for
// concurrent use.
type Controller struct {
	loc    *time.Location
	now    func() time.Time
	labels calendar.Labels

	weekStart    time.Weekday
	deselectable bool
	military     bool
	min          *time.Time
	max          *time.Time
	annotator    Annotator

	current     time.Time
	selected    time.Time
	hasSelected bool

	observers []*observer
}

type observer struct {
	fn func(*time.Time)
}

// New validates cfg and builds a Controller.
func New(cfg Config) (*Controller, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	c := &Controller{
		loc:          loc,
		now:          now,
		labels:       cfg.Labels.Normalize(),
		weekStart:    cfg.WeekStart,
		deselectable: cfg.Deselectable,
		military:     cfg.MilitaryTime,
		annotator:    cfg.Annotator,
	}

	if cfg.Min != nil {
		m := cfg.Min.In(loc)
		c.min = &m
	}
	if cfg.Max != nil {
		m := cfg.Max.In(loc)
		c.max = &m
	}
	if c.min != nil && c.max != nil && c.min.After(*c.max) {
		return nil, fmt.Errorf("picker: %w (min=%s max=%s)", ErrInvalidRange,
			c.min.Format(time.RFC3339), c.max.Format(time.RFC3339))
	}

	if cfg.Current != nil {
		c.current = cfg.Current.In(loc)
	} else {
		c.current = c.clock()
	}
	if cfg.Selected != nil {
		c.selected = cfg.Selected.In(loc)
		c.hasSelected = true
	}
	if cfg.OnChange != nil {
		c.Subscribe(cfg.OnChange)
	}

	return c, nil
}

func (c *Controller) clock() time.Time {
	return c.now().In(c.loc)
}

// Location returns the wall-clock zone used by the controller.
func (c *Controller) Location() *time.Location { return c.loc }

func (c *Controller) Labels() calendar.Labels { return c.labels }

func (c *Controller) WeekStart() time.Weekday { return c.weekStart }

func (c *Controller) MilitaryTime() bool { return c.military }

func (c *Controller) Deselectable() bool { return c.deselectable }

// Bounds returns copies of the configured min and max.
func (c *Controller) Bounds() (min, max *time.Time) {
	if c.min != nil {
		m := *c.min
		min = &m
	}
	if c.max != nil {
		m := *c.max
		max = &m
	}
	return min, max
}

// Current returns the reference date of the viewed month.
func (c *Controller) Current() time.Time { return c.current }

// Selected returns the selection and whether there is one.
func (c *Controller) Selected() (time.Time, bool) {
	return c.selected, c.hasSelected
}

// Subscribe registers fn to be called synchronously after every selection
// change. The returned func removes it.
func (c *Controller) Subscribe(fn func(selected *time.Time)) (unsubscribe func()) {
	o := &observer{fn: fn}
	c.observers = append(c.observers, o)
	return func() {
		for i, existing := range c.observers {
			if existing == o {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

func (c *Controller) notify() {
	var sel *time.Time
	if c.hasSelected {
		s := c.selected
		sel = &s
	}
	// Snapshot: observers may unsubscribe while being notified.
	obs := append([]*observer(nil), c.observers...)
	for _, o := range obs {
		o.fn(sel)
	}
}

func (c *Controller) setSelected(t time.Time) {
	c.selected = t
	c.hasSelected = true
	appLog.Debug("picker selection changed", "selected", t)
	c.notify()
}

// Clear drops the selection.
func (c *Controller) Clear() {
	c.selected = time.Time{}
	c.hasSelected = false
	appLog.Debug("picker selection cleared")
	c.notify()
}

// InRange reports whether t lies within [min, max].
func (c *Controller) InRange(t time.Time) bool {
	if c.min != nil && t.Before(*c.min) {
		return false
	}
	if c.max != nil && t.After(*c.max) {
		return false
	}
	return true
}

// DayInRange compares by calendar date, so min's own day counts as in range
// even when min carries a time of day. Blackout days from the annotator are
// out of range.
func (c *Controller) DayInRange(day time.Time) bool {
	day = calendar.Midnight(day.In(c.loc))
	if c.min != nil && day.Before(calendar.Midnight(*c.min)) {
		return false
	}
	if c.max != nil && day.After(calendar.Midnight(*c.max)) {
		return false
	}
	if c.annotator != nil && c.annotator.Blocked(day) {
		return false
	}
	return true
}
