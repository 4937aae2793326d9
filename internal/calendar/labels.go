package calendar

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Labels is the display text injected into a picker. Values are copied
// around freely; nothing mutates a Labels after Normalize.
type Labels struct {
	Months   [12]string `yaml:"months" json:"months"`
	Days     [7]string  `yaml:"days" json:"days"`
	Meridiem [2]string  `yaml:"meridiem" json:"meridiem"`

	// DayAbbrev is how many leading runes of a day name make a column
	// header.
	DayAbbrev int `yaml:"day_abbrev" json:"day_abbrev"`
}

func DefaultLabels() Labels {
	return Labels{
		Months: [12]string{
			"January", "February", "March", "April", "May", "June",
			"July", "August", "September", "October", "November", "December",
		},
		Days:      [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Meridiem:  [2]string{"AM", "PM"},
		DayAbbrev: 2,
	}
}

// Normalize fills blank entries from DefaultLabels and title-cases month
// and day names. Meridiem text is kept as supplied.
func (l Labels) Normalize() Labels {
	def := DefaultLabels()
	title := cases.Title(language.Und, cases.NoLower)

	for i, s := range l.Months {
		s = strings.TrimSpace(s)
		if s == "" {
			s = def.Months[i]
		}
		l.Months[i] = title.String(s)
	}
	for i, s := range l.Days {
		s = strings.TrimSpace(s)
		if s == "" {
			s = def.Days[i]
		}
		l.Days[i] = title.String(s)
	}
	for i, s := range l.Meridiem {
		if strings.TrimSpace(s) == "" {
			l.Meridiem[i] = def.Meridiem[i]
		}
	}
	if l.DayAbbrev <= 0 {
		l.DayAbbrev = def.DayAbbrev
	}
	return l
}

// MonthTitle renders "<month name> <year>" for t.
func (l Labels) MonthTitle(t time.Time) string {
	return l.Months[t.Month()-1] + " " + strconv.Itoa(t.Year())
}

// Headers returns the abbreviated day names in column order for a sheet
// whose weeks start on weekStart.
func (l Labels) Headers(weekStart time.Weekday) []string {
	out := make([]string, DaysInWeek)
	for i := range out {
		name := l.Days[(int(weekStart)+i)%DaysInWeek]
		out[i] = abbreviate(name, l.DayAbbrev)
	}
	return out
}

func abbreviate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}
