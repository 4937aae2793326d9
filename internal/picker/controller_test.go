package picker

import (
	"errors"
	"testing"
	"time"

	"datepick/internal/calendar"
)

var fixedNow = time.Date(2024, time.February, 14, 10, 30, 0, 0, time.UTC)

func ptr(t time.Time) *time.Time { return &t }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// newTestController builds a UTC controller with a frozen clock.
func newTestController(t *testing.T, cfg Config) *Controller {
	t.Helper()
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return fixedNow }
	}
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNewDefaults(t *testing.T) {
	c := newTestController(t, Config{})
	if !c.Current().Equal(fixedNow) {
		t.Fatalf("expected current to default to now, got %s", c.Current())
	}
	if _, ok := c.Selected(); ok {
		t.Fatalf("expected no selection")
	}
	if c.Labels().Months[0] != "January" {
		t.Fatalf("expected default labels")
	}
}

func TestNewRejectsInvertedRange(t *testing.T) {
	_, err := New(Config{
		Min: ptr(day(2024, time.March, 1)),
		Max: ptr(day(2024, time.February, 1)),
	})
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestNewConvertsIntoLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	c, err := New(Config{
		Location: loc,
		Now:      func() time.Time { return fixedNow },
		Selected: ptr(time.Date(2024, time.February, 1, 2, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatal(err)
	}
	sel, _ := c.Selected()
	if sel.Location() != loc || sel.Day() != 31 || sel.Hour() != 21 {
		t.Fatalf("expected selection converted to UTC-5, got %s", sel)
	}
}

func TestSelectToggleWhenDeselectable(t *testing.T) {
	d := day(2024, time.February, 20)

	c := newTestController(t, Config{Deselectable: true})
	c.Select(d)
	c.Select(d)
	if _, ok := c.Selected(); ok {
		t.Fatalf("expected second select to clear the selection")
	}

	c = newTestController(t, Config{Deselectable: false})
	c.Select(d)
	c.Select(d)
	sel, ok := c.Selected()
	if !ok || !sel.Equal(d) {
		t.Fatalf("expected selection to stay %s, got %s (%v)", d, sel, ok)
	}
}

func TestSelectSameDayDifferentTimeDeselects(t *testing.T) {
	c := newTestController(t, Config{
		Deselectable: true,
		Selected:     ptr(time.Date(2024, time.February, 20, 17, 0, 0, 0, time.UTC)),
	})
	c.Select(day(2024, time.February, 20))
	if _, ok := c.Selected(); ok {
		t.Fatalf("expected same calendar day to deselect")
	}
}

func TestSelectMinDayKeepsMinTime(t *testing.T) {
	min := time.Date(2024, time.February, 10, 9, 15, 0, 0, time.UTC)
	c := newTestController(t, Config{Min: &min})

	c.Select(day(2024, time.February, 10))
	sel, ok := c.Selected()
	if !ok || !sel.Equal(min) {
		t.Fatalf("expected selection %s, got %s", min, sel)
	}

	c.Select(day(2024, time.February, 11))
	sel, _ = c.Selected()
	if !sel.Equal(day(2024, time.February, 11)) {
		t.Fatalf("expected plain day selection, got %s", sel)
	}
}

func TestObserversSeeEveryChange(t *testing.T) {
	var got []*time.Time
	c := newTestController(t, Config{
		Deselectable: true,
		OnChange:     func(sel *time.Time) { got = append(got, sel) },
	})

	var second int
	unsubscribe := c.Subscribe(func(*time.Time) { second++ })

	d := day(2024, time.February, 3)
	c.Select(d)
	c.Select(d)
	unsubscribe()
	c.Select(d)

	if len(got) != 3 {
		t.Fatalf("expected 3 notifications, got %d", len(got))
	}
	if got[0] == nil || !got[0].Equal(d) {
		t.Fatalf("first notification should carry %s, got %v", d, got[0])
	}
	if got[1] != nil {
		t.Fatalf("deselect should notify nil, got %v", got[1])
	}
	if second != 2 {
		t.Fatalf("unsubscribed observer saw %d changes, want 2", second)
	}
}

func TestNextMonthClampsDay(t *testing.T) {
	c := newTestController(t, Config{Current: ptr(day(2024, time.January, 31))})
	c.NextMonth()
	if !c.Current().Equal(day(2024, time.February, 29)) {
		t.Fatalf("expected 2024-02-29, got %s", c.Current())
	}

	c = newTestController(t, Config{Current: ptr(day(2023, time.January, 31))})
	c.NextMonth()
	if !c.Current().Equal(day(2023, time.February, 28)) {
		t.Fatalf("expected 2023-02-28, got %s", c.Current())
	}
	c.PrevMonth()
	if !c.Current().Equal(day(2023, time.January, 28)) {
		t.Fatalf("expected 2023-01-28, got %s", c.Current())
	}
}

func TestMonthNavigationAcrossYears(t *testing.T) {
	c := newTestController(t, Config{Current: ptr(day(2024, time.December, 15))})
	c.NextMonth()
	if c.Current().Year() != 2025 || c.Current().Month() != time.January {
		t.Fatalf("expected January 2025, got %s", c.Current())
	}
	c.PrevMonth()
	c.PrevMonth()
	if c.Current().Year() != 2024 || c.Current().Month() != time.November {
		t.Fatalf("expected November 2024, got %s", c.Current())
	}
	if c.Title() != "November 2024" {
		t.Fatalf("unexpected title %q", c.Title())
	}
}

func TestMonthTagsRangeAndToday(t *testing.T) {
	c := newTestController(t, Config{
		Current: ptr(day(2024, time.February, 1)),
		Min:     ptr(time.Date(2024, time.February, 5, 12, 0, 0, 0, time.UTC)),
		Max:     ptr(day(2024, time.February, 25)),
	})
	g := c.Month()
	if len(g.Weeks) != 5 {
		t.Fatalf("expected 5 weeks, got %d", len(g.Weeks))
	}
	for _, cell := range g.Days() {
		want := !cell.Date.Before(day(2024, time.February, 5)) && !cell.Date.After(day(2024, time.February, 25))
		if cell.InRange != want {
			t.Fatalf("InRange=%v for %s", cell.InRange, cell.Date)
		}
		if cell.Today != calendar.SameDay(cell.Date, fixedNow) {
			t.Fatalf("Today=%v for %s", cell.Today, cell.Date)
		}
	}
}

func TestSelectTodayUnavailableWhenMinIsTomorrow(t *testing.T) {
	current := day(2024, time.March, 5)
	c := newTestController(t, Config{
		Current: &current,
		Min:     ptr(day(2024, time.February, 15)),
	})
	if c.CanSelectToday() {
		t.Fatalf("today should be unavailable")
	}
	if c.SelectToday() {
		t.Fatalf("SelectToday should report false")
	}
	if _, ok := c.Selected(); ok {
		t.Fatalf("selection should be untouched")
	}
	if !c.Current().Equal(current) {
		t.Fatalf("current should be untouched, got %s", c.Current())
	}
}

func TestSelectTodaySnapsToMidnight(t *testing.T) {
	c := newTestController(t, Config{Current: ptr(day(2023, time.June, 1)), Deselectable: true})
	if !c.SelectToday() {
		t.Fatalf("expected today to be selectable")
	}
	sel, _ := c.Selected()
	if !sel.Equal(day(2024, time.February, 14)) {
		t.Fatalf("expected midnight today, got %s", sel)
	}
	if !c.Current().Equal(day(2024, time.February, 14)) {
		t.Fatalf("expected current to jump to today, got %s", c.Current())
	}

	// A second press keeps today selected even on a deselectable picker.
	c.SelectToday()
	if _, ok := c.Selected(); !ok {
		t.Fatalf("SelectToday must not toggle the selection off")
	}
}

func TestSelectTodayUsesMinWhenMinIsToday(t *testing.T) {
	min := time.Date(2024, time.February, 14, 8, 0, 0, 0, time.UTC)
	c := newTestController(t, Config{Min: &min})
	if !c.SelectToday() {
		t.Fatalf("min's own day should be selectable")
	}
	sel, _ := c.Selected()
	if !sel.Equal(min) {
		t.Fatalf("expected %s, got %s", min, sel)
	}
}

func TestSelectNow(t *testing.T) {
	c := newTestController(t, Config{})
	if !c.SelectNow() {
		t.Fatalf("expected now to be selectable")
	}
	sel, _ := c.Selected()
	if !sel.Equal(fixedNow) || !c.Current().Equal(fixedNow) {
		t.Fatalf("expected selection and current at now, got %s / %s", sel, c.Current())
	}

	c = newTestController(t, Config{Max: ptr(day(2024, time.February, 14))})
	if c.SelectNow() {
		t.Fatalf("now is after max; SelectNow should be unavailable")
	}
	if _, ok := c.Selected(); ok {
		t.Fatalf("selection should be untouched")
	}
}

type fakeAnnotator struct {
	blocked time.Time
}

func (f fakeAnnotator) Annotate(d time.Time) []string {
	if calendar.SameDay(d, f.blocked) {
		return []string{"Closed"}
	}
	return nil
}

func (f fakeAnnotator) Blocked(d time.Time) bool {
	return calendar.SameDay(d, f.blocked)
}

func TestAnnotatorMarksAndBlocksDays(t *testing.T) {
	c := newTestController(t, Config{
		Current:   ptr(day(2024, time.February, 1)),
		Annotator: fakeAnnotator{blocked: day(2024, time.February, 14)},
	})
	for _, cell := range c.Month().Days() {
		isBlocked := calendar.SameDay(cell.Date, day(2024, time.February, 14))
		if cell.InRange == isBlocked {
			t.Fatalf("InRange=%v for %s", cell.InRange, cell.Date)
		}
		if isBlocked && (len(cell.Marks) != 1 || cell.Marks[0] != "Closed") {
			t.Fatalf("expected mark on blocked day, got %v", cell.Marks)
		}
	}
	if c.CanSelectToday() {
		t.Fatalf("today is a blackout day")
	}
}
