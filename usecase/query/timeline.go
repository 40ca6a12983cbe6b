package query

import (
	"math"
	"sort"
	"time"

	"github.com/fastygo/kanban/domain"
)

const day = 24 * time.Hour

// Bar positions one card on a timeline window.
type Bar struct {
	Card         domain.Card `json:"card"`
	Start        time.Time   `json:"start"`
	End          time.Time   `json:"end"`
	OffsetDays   int         `json:"offsetDays"`
	DurationDays int         `json:"durationDays"`
	LeftPercent  float64     `json:"leftPercent"`
	WidthPercent float64     `json:"widthPercent"`
}

// Timeline lays out cards with a start or due date that overlap
// [start, end]. A card missing one end uses the other for both. Start and
// End keep the card's own span; offset, duration and percentages describe
// the part inside the window.
func Timeline(cards []domain.Card, start, end time.Time) []Bar {
	if end.Before(start) {
		return nil
	}
	totalDays := diffDays(end, start) + 1
	bars := make([]Bar, 0)
	for _, c := range cards {
		if c.StartDate == nil && c.DueDate == nil {
			continue
		}
		from, to := effectiveSpan(c)
		if to.Before(start) || from.After(end) {
			continue
		}
		visibleFrom, visibleTo := from, to
		if visibleFrom.Before(start) {
			visibleFrom = start
		}
		if visibleTo.After(end) {
			visibleTo = end
		}
		offset := diffDays(visibleFrom, start)
		duration := diffDays(visibleTo, visibleFrom) + 1
		if duration < 1 {
			duration = 1
		}
		left := float64(offset) / float64(totalDays) * 100
		width := math.Min(float64(duration)/float64(totalDays)*100, 100-left)
		bars = append(bars, Bar{
			Card:         c,
			Start:        from,
			End:          to,
			OffsetDays:   offset,
			DurationDays: duration,
			LeftPercent:  left,
			WidthPercent: width,
		})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Start.Before(bars[j].Start) })
	return bars
}

func effectiveSpan(c domain.Card) (time.Time, time.Time) {
	switch {
	case c.StartDate != nil && c.DueDate != nil:
		return *c.StartDate, *c.DueDate
	case c.StartDate != nil:
		return *c.StartDate, *c.StartDate
	default:
		return *c.DueDate, *c.DueDate
	}
}

// diffDays counts whole days from b to a, truncated toward zero.
func diffDays(a, b time.Time) int {
	return int(a.Sub(b) / day)
}

// WeekRange returns the Sunday-to-Saturday week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	start := startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
	return start, start.AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// MonthRange returns the calendar month containing t.
func MonthRange(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// DueOn returns cards due on the calendar day of t in loc.
func DueOn(cards []domain.Card, t time.Time, loc *time.Location) []domain.Card {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := t.In(loc).Date()
	out := make([]domain.Card, 0)
	for _, c := range cards {
		if c.DueDate == nil {
			continue
		}
		cy, cm, cd := c.DueDate.In(loc).Date()
		if cy == y && cm == m && cd == d {
			out = append(out, c)
		}
	}
	return out
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
