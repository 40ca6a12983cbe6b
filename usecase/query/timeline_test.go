package query

import (
	"math"
	"testing"
	"time"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/internal/testutil"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTimeline(t *testing.T) {
	start := date(2025, 7, 1)
	end := date(2025, 7, 10)
	cards := []domain.Card{
		testutil.NewCard("span").WithStart(date(2025, 7, 3)).WithDue(date(2025, 7, 5)).Build(),
		testutil.NewCard("due-only").WithDue(date(2025, 7, 2)).Build(),
		testutil.NewCard("outside").WithDue(date(2025, 8, 1)).Build(),
		testutil.NewCard("undated").Build(),
		testutil.NewCard("clipped").WithStart(date(2025, 6, 20)).WithDue(date(2025, 7, 1)).Build(),
	}

	bars := Timeline(cards, start, end)
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if bars[0].Card.ID != "clipped" || bars[1].Card.ID != "due-only" || bars[2].Card.ID != "span" {
		t.Fatalf("bars must sort by start: %s %s %s", bars[0].Card.ID, bars[1].Card.ID, bars[2].Card.ID)
	}

	span := bars[2]
	if span.OffsetDays != 2 || span.DurationDays != 3 {
		t.Fatalf("unexpected span geometry %+v", span)
	}
	if !approx(span.LeftPercent, 20) || !approx(span.WidthPercent, 30) {
		t.Fatalf("unexpected span percentages %v / %v", span.LeftPercent, span.WidthPercent)
	}
	if single := bars[1]; single.DurationDays != 1 || single.OffsetDays != 1 {
		t.Fatalf("single-date card must span one day, got %+v", single)
	}
	clipped := bars[0]
	if clipped.OffsetDays != 0 || clipped.DurationDays != 1 {
		t.Fatalf("card starting before the window must be cut at the window start, got %+v", clipped)
	}
	if !approx(clipped.WidthPercent, 10) || !clipped.Start.Equal(date(2025, 6, 20)) {
		t.Fatalf("unexpected clipped bar %v from %v", clipped.WidthPercent, clipped.Start)
	}

	if got := Timeline(cards, end, start); got != nil {
		t.Fatal("inverted window yields nothing")
	}
}

func TestWeekAndMonthRange(t *testing.T) {
	wed := time.Date(2025, 7, 16, 15, 0, 0, 0, time.UTC)
	ws, we := WeekRange(wed)
	if !ws.Equal(date(2025, 7, 13)) || !we.Equal(date(2025, 7, 20).Add(-time.Nanosecond)) {
		t.Fatalf("unexpected week %v - %v", ws, we)
	}
	ms, me := MonthRange(wed)
	if !ms.Equal(date(2025, 7, 1)) || !me.Equal(date(2025, 8, 1).Add(-time.Nanosecond)) {
		t.Fatalf("unexpected month %v - %v", ms, me)
	}
}

func TestDueOn(t *testing.T) {
	cards := []domain.Card{
		testutil.NewCard("late").WithDue(time.Date(2025, 7, 20, 23, 30, 0, 0, time.UTC)).Build(),
		testutil.NewCard("noon").WithDue(time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC)).Build(),
		testutil.NewCard("none").Build(),
	}
	day := date(2025, 7, 20).Add(12 * time.Hour)
	equalIDs(t, DueOn(cards, day, time.UTC), "late", "noon")

	east := time.FixedZone("UTC+2", 2*3600)
	equalIDs(t, DueOn(cards, day, east), "noon")
}

func TestTimelineClipsBothEnds(t *testing.T) {
	start := date(2025, 7, 1)
	end := date(2025, 7, 10)
	cards := []domain.Card{
		testutil.NewCard("long").WithStart(date(2025, 6, 1)).WithDue(date(2025, 8, 31)).Build(),
		testutil.NewCard("tail").WithStart(date(2025, 7, 8)).WithDue(date(2025, 7, 20)).Build(),
	}
	bars := Timeline(cards, start, end)
	if len(bars) != 2 {
		t.Fatalf("expected 2 bars, got %d", len(bars))
	}
	long, tail := bars[0], bars[1]
	if long.OffsetDays != 0 || long.DurationDays != 10 || !approx(long.WidthPercent, 100) {
		t.Fatalf("window-spanning card must fill the window, got %+v", long)
	}
	if tail.OffsetDays != 7 || tail.DurationDays != 3 {
		t.Fatalf("card running past the window must stop at its end, got %+v", tail)
	}
	if !approx(tail.LeftPercent+tail.WidthPercent, 100) {
		t.Fatalf("tail bar must end at the window edge: %v + %v", tail.LeftPercent, tail.WidthPercent)
	}
}
