package calendar

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestHeadersRotateWithWeekStart(t *testing.T) {
	l := DefaultLabels()

	got := l.Headers(time.Sunday)
	want := []string{"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sunday headers = %v, want %v", got, want)
	}

	got = l.Headers(time.Monday)
	want = []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("monday headers = %v, want %v", got, want)
	}
}

func TestHeadersAreRuneSafe(t *testing.T) {
	l := DefaultLabels()
	l.Days = [7]string{"일요일", "월요일", "화요일", "수요일", "목요일", "금요일", "토요일"}
	l.DayAbbrev = 1

	got := l.Headers(time.Sunday)
	if got[0] != "일" || got[6] != "토" {
		t.Fatalf("unexpected headers %v", got)
	}
}

func TestNormalizeFillsBlanks(t *testing.T) {
	var l Labels
	l.Months[1] = "  février "
	l.Meridiem[0] = "a.m."

	n := l.Normalize()
	if n.Months[0] != "January" {
		t.Fatalf("expected default January, got %q", n.Months[0])
	}
	if n.Months[1] != "Février" {
		t.Fatalf("expected title-cased Février, got %q", n.Months[1])
	}
	if n.Meridiem[0] != "a.m." || n.Meridiem[1] != "PM" {
		t.Fatalf("unexpected meridiem %v", n.Meridiem)
	}
	if n.DayAbbrev != 2 {
		t.Fatalf("expected default abbreviation length, got %d", n.DayAbbrev)
	}
}

func TestMonthTitle(t *testing.T) {
	got := DefaultLabels().MonthTitle(date(2024, time.February, 9))
	if got != "February 2024" {
		t.Fatalf("got %q", got)
	}
}

func TestParseWeekday(t *testing.T) {
	tests := map[string]time.Weekday{
		"sunday":  time.Sunday,
		"Monday":  time.Monday,
		" sat ":   time.Saturday,
		"THU":     time.Thursday,
		"tuesday": time.Tuesday,
	}
	for in, want := range tests {
		got, err := ParseWeekday(in)
		if err != nil {
			t.Fatalf("ParseWeekday(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseWeekday(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := ParseWeekday("someday"); !errors.Is(err, ErrUnknownWeekday) {
		t.Fatalf("expected ErrUnknownWeekday, got %v", err)
	}
}
