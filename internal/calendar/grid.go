// Package calendar lays out month sheets: the run of whole weeks that
// covers one calendar month, padded with the neighbouring months' days.
package calendar

import "time"

const (
	DaysInWeek = 7

	// maxGridDays bounds layout; no month spans more than six week rows.
	maxGridDays = 6 * DaysInWeek
)

// DayCell is one normalized calendar day plus its display flags.
type DayCell struct {
	// Date is midnight of the day in the layout's location.
	Date time.Time

	Today   bool
	Weekend bool
	InMonth bool
	InRange bool

	// Marks holds annotation summaries for the day, if any.
	Marks []string
}

// Week is seven consecutive days starting on the grid's week start.
type Week [DaysInWeek]DayCell

// Grid is the sheet for a single month.
type Grid struct {
	// Month is midnight on the 1st of the reference month.
	Month     time.Time
	WeekStart time.Weekday
	Weeks     []Week
}

// First returns the first cell of the sheet.
func (g Grid) First() DayCell {
	return g.Weeks[0][0]
}

// Last returns the last cell of the sheet.
func (g Grid) Last() DayCell {
	return g.Weeks[len(g.Weeks)-1][DaysInWeek-1]
}

// Days flattens the sheet in chronological order.
func (g Grid) Days() []DayCell {
	out := make([]DayCell, 0, len(g.Weeks)*DaysInWeek)
	for _, w := range g.Weeks {
		out = append(out, w[:]...)
	}
	return out
}

// Layout carries everything besides the reference month that shapes a
// sheet. The zero Layout starts weeks on Sunday, flags no day as today and
// treats every day as in range.
type Layout struct {
	WeekStart time.Weekday

	// Today is compared by calendar date. Zero disables the flag.
	Today time.Time

	// InRange reports whether a day may be offered for selection. Nil
	// means unbounded.
	InRange func(day time.Time) bool

	// Annotate returns the marks for a day. Nil means no marks.
	Annotate func(day time.Time) []string
}

// BuildMonth lays out the weeks covering ref's month with weeks starting on
// weekStart. Today, range and annotation flags are left at their defaults.
func BuildMonth(ref time.Time, weekStart time.Weekday) Grid {
	return Layout{WeekStart: weekStart}.Build(ref)
}

// Build lays out the sheet for ref's month. Fields are read in ref's
// location.
func (l Layout) Build(ref time.Time) Grid {
	loc := ref.Location()
	monthStart := StartOfDay(ref.Year(), ref.Month(), 1, loc)

	back := (int(monthStart.Weekday()) - int(l.WeekStart) + DaysInWeek) % DaysInWeek
	gy, gm, gd := monthStart.Year(), monthStart.Month(), 1-back

	var (
		weeks     = make([]Week, 0, maxGridDays/DaysInWeek)
		week      Week
		started   bool
		completed bool
	)
	for i := 0; i < maxGridDays; i++ {
		day := StartOfDay(gy, gm, gd+i, loc)
		cell := l.cell(day, monthStart)
		week[i%DaysInWeek] = cell
		if cell.InMonth {
			started = true
		}

		next := StartOfDay(gy, gm, gd+i+1, loc)
		if started && !sameMonth(next, monthStart) {
			completed = true
		}

		if i%DaysInWeek == DaysInWeek-1 {
			weeks = append(weeks, week)
			if completed {
				break
			}
		}
	}

	return Grid{
		Month:     monthStart,
		WeekStart: l.WeekStart,
		Weeks:     weeks,
	}
}

func (l Layout) cell(day, monthStart time.Time) DayCell {
	c := DayCell{
		Date:    day,
		Weekend: IsWeekend(day),
		InMonth: sameMonth(day, monthStart),
		InRange: true,
	}
	if !l.Today.IsZero() {
		c.Today = SameDay(day, l.Today.In(day.Location()))
	}
	if l.InRange != nil {
		c.InRange = l.InRange(day)
	}
	if l.Annotate != nil {
		c.Marks = l.Annotate(day)
	}
	return c
}

// Midnight truncates t to the start of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return StartOfDay(y, m, d, t.Location())
}

// StartOfDay returns the first instant of the date y-m-d in loc. Out of
// range days normalize like time.Date. Where a DST switch skips midnight
// the day starts at the transition instead.
func StartOfDay(y int, m time.Month, d int, loc *time.Location) time.Time {
	ny, nm, nd := time.Date(y, m, d, 12, 0, 0, 0, loc).Date()
	t := time.Date(ny, nm, nd, 0, 0, 0, 0, loc)
	for i := 0; i < 2; i++ {
		if ty, tm, td := t.Date(); ty == ny && tm == nm && td == nd {
			return t
		}
		// time.Date resolved the missing midnight into the previous day;
		// the zone in effect there ends where our date begins.
		_, end := t.ZoneBounds()
		if end.IsZero() {
			break
		}
		t = end
	}
	return t
}

// SameDay compares calendar dates as seen in each value's own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func sameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// DaysInMonth returns the length of month m in year y.
func DaysInMonth(y int, m time.Month) int {
	// Day 0 of next month is last day of this month.
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonths moves t by n calendar months keeping the time of day. The day
// of month is clamped to the target month's length, so Jan 31 + 1 lands on
// the last day of February instead of rolling into March.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(n), 1, 12, 0, 0, 0, t.Location())
	ty, tm, _ := target.Date()
	if last := DaysInMonth(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
