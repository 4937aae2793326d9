package ics

import (
	"context"
	"sort"
	"sync"
	"time"

	appLog "datepick/internal/log"
	"datepick/internal/model"
)

type dayKey struct {
	y int
	m time.Month
	d int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// Index answers per-day annotation queries. It is immutable once built.
type Index struct {
	loc     *time.Location
	marks   map[dayKey][]string
	blocked map[dayKey]bool
}

// NewIndex buckets occurrences by calendar day in loc.
func NewIndex(occurrences []model.Occurrence, loc *time.Location) *Index {
	if loc == nil {
		loc = time.Local
	}
	idx := &Index{
		loc:     loc,
		marks:   make(map[dayKey][]string),
		blocked: make(map[dayKey]bool),
	}

	seen := make(map[dayKey]map[string]bool)
	for _, occ := range occurrences {
		occ.Start = occ.Start.In(loc)
		occ.End = occ.End.In(loc)
		for _, d := range occ.Days() {
			k := keyOf(d)
			if occ.Blackout {
				idx.blocked[k] = true
			}
			if occ.Summary == "" {
				continue
			}
			if seen[k] == nil {
				seen[k] = make(map[string]bool)
			}
			if seen[k][occ.Summary] {
				continue
			}
			seen[k][occ.Summary] = true
			idx.marks[k] = append(idx.marks[k], occ.Summary)
		}
	}
	for _, m := range idx.marks {
		sort.Strings(m)
	}
	return idx
}

// Annotate returns the sorted, de-duplicated summaries on day.
func (i *Index) Annotate(day time.Time) []string {
	if i == nil {
		return nil
	}
	return i.marks[keyOf(day.In(i.loc))]
}

// Blocked reports whether a blackout event touches day.
func (i *Index) Blocked(day time.Time) bool {
	if i == nil {
		return false
	}
	return i.blocked[keyOf(day.In(i.loc))]
}

// Len is the number of annotated or blocked days.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	n := len(i.marks)
	for k := range i.blocked {
		if _, ok := i.marks[k]; !ok {
			n++
		}
	}
	return n
}

// Store holds the live Index and lets a refresh job swap it while readers
// keep querying.
type Store struct {
	mu  sync.RWMutex
	idx *Index
}

func (s *Store) Swap(idx *Index) {
	s.mu.Lock()
	s.idx = idx
	s.mu.Unlock()
}

func (s *Store) Current() *Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx
}

func (s *Store) Annotate(day time.Time) []string {
	return s.Current().Annotate(day)
}

func (s *Store) Blocked(day time.Time) bool {
	return s.Current().Blocked(day)
}

// RefreshConfig describes one rebuild of the index.
type RefreshConfig struct {
	Sources  []Source
	Location *time.Location
	// Horizon is how far before and after Now occurrences are expanded.
	Horizon time.Duration
	Now     time.Time
}

// Refresh loads, parses and expands every source and swaps the result into
// the store. Sources that fail are skipped; an error is returned only when
// every source failed.
func (s *Store) Refresh(ctx context.Context, l *Loader, cfg RefreshConfig) error {
	results, errs := l.LoadAll(ctx, cfg.Sources)
	if len(cfg.Sources) > 0 && len(results) == 0 && len(errs) > 0 {
		return errs[0]
	}

	var parsed []ParsedEvent
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body)
		if err != nil {
			appLog.Error("ics parse failed", err, "id", res.Source.ID)
			continue
		}
		parsed = append(parsed, events...)
	}

	occ, err := ExpandOccurrences(parsed, ExpandConfig{
		DisplayLocation: cfg.Location,
		RangeStart:      cfg.Now.Add(-cfg.Horizon),
		RangeEnd:        cfg.Now.Add(cfg.Horizon),
	})
	if err != nil {
		return err
	}

	idx := NewIndex(occ, cfg.Location)
	s.Swap(idx)
	appLog.Info("annotations refreshed",
		"sources", len(cfg.Sources),
		"loaded", len(results),
		"occurrences", len(occ),
		"days", idx.Len(),
	)
	return nil
}
