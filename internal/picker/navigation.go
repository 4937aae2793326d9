package picker

import (
	"time"

	"datepick/internal/calendar"
	appLog "datepick/internal/log"
)

// Month lays out the sheet for the viewed month.
func (c *Controller) Month() calendar.Grid {
	l := calendar.Layout{
		WeekStart: c.weekStart,
		Today:     c.clock(),
		InRange:   c.DayInRange,
	}
	if c.annotator != nil {
		l.Annotate = c.annotator.Annotate
	}
	return l.Build(c.current)
}

// Title is the viewed month's heading, e.g. "February 2024".
func (c *Controller) Title() string {
	return c.labels.MonthTitle(c.current)
}

// Headers are the abbreviated weekday names in column order.
func (c *Controller) Headers() []string {
	return c.labels.Headers(c.weekStart)
}

// NextMonth moves the view forward one month, clamping the day of month.
func (c *Controller) NextMonth() {
	c.current = calendar.AddMonths(c.current, 1)
	appLog.Debug("picker next month", "current", c.current)
}

// PrevMonth moves the view back one month, clamping the day of month.
func (c *Controller) PrevMonth() {
	c.current = calendar.AddMonths(c.current, -1)
	appLog.Debug("picker prev month", "current", c.current)
}

// Select applies a click on day. A second click on the selected day clears
// it when the picker is deselectable. Clicking min's day selects min itself
// so its time of day survives.
func (c *Controller) Select(day time.Time) {
	day = day.In(c.loc)
	if c.deselectable && c.hasSelected && calendar.SameDay(c.selected, day) {
		c.Clear()
		return
	}
	c.selectDay(day)
}

func (c *Controller) selectDay(day time.Time) {
	if c.min != nil && calendar.SameDay(day, *c.min) {
		c.setSelected(*c.min)
		return
	}
	c.setSelected(day)
}

// CanSelectToday reports whether today's date lies within the bounds.
func (c *Controller) CanSelectToday() bool {
	return c.DayInRange(c.clock())
}

// CanSelectNow reports whether the current instant lies within the bounds.
func (c *Controller) CanSelectNow() bool {
	return c.InRange(c.clock())
}

// SelectToday jumps the view to today and selects its midnight. It returns
// false without touching state when today is out of range. It never
// toggles, so a second SelectToday keeps the selection even when
// deselectable.
func (c *Controller) SelectToday() bool {
	if !c.CanSelectToday() {
		return false
	}
	today := calendar.Midnight(c.clock())
	c.current = today
	c.selectDay(today)
	return true
}

// SelectNow jumps the view to now and selects the current instant. It
// returns false without touching state when now is out of range.
func (c *Controller) SelectNow() bool {
	now := c.clock()
	if !c.InRange(now) {
		return false
	}
	c.current = now
	c.setSelected(now)
	return true
}
