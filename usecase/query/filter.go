package query

import (
	"strings"
	"time"

	"github.com/fastygo/kanban/domain"
)

// DueSoonWindow is how far ahead the due-soon filter looks.
const DueSoonWindow = 3 * 24 * time.Hour

// DateRange bounds a due date inclusively. Nil ends are open.
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Active reports whether either end is set.
func (r DateRange) Active() bool {
	return r.Start != nil || r.End != nil
}

// Filters is the structured filter panel state. The zero value passes
// every card.
type Filters struct {
	AssigneeIDs  []string  `json:"assigneeIds"`
	Priorities   []string  `json:"priorities"`
	Labels       []string  `json:"labels"`
	DueDateRange DateRange `json:"dueDateRange"`
	Overdue      bool      `json:"overdue"`
	DueSoon      bool      `json:"dueSoon"`
}

// IsZero reports whether no criterion is set.
func (f Filters) IsZero() bool {
	return len(f.AssigneeIDs) == 0 &&
		len(f.Priorities) == 0 &&
		len(f.Labels) == 0 &&
		!f.DueDateRange.Active() &&
		!f.Overdue &&
		!f.DueSoon
}

// ApplyFilters returns the cards passing every active criterion, preserving
// input order. With zero filters the input slice is returned as is.
func ApplyFilters(cards []domain.Card, f Filters, now time.Time) []domain.Card {
	if f.IsZero() {
		return cards
	}
	out := make([]domain.Card, 0, len(cards))
	for _, card := range cards {
		if Matches(card, f, now) {
			out = append(out, card)
		}
	}
	return out
}

// Matches evaluates a single card against f.
func Matches(card domain.Card, f Filters, now time.Time) bool {
	if len(f.AssigneeIDs) > 0 {
		assignee := card.AssigneeID
		if assignee == "" {
			assignee = domain.UnassignedID
		}
		if !contains(f.AssigneeIDs, assignee) {
			return false
		}
	}
	if len(f.Priorities) > 0 && !contains(f.Priorities, string(card.Priority)) {
		return false
	}
	if len(f.Labels) > 0 && !anyLabel(card.Labels, f.Labels) {
		return false
	}
	if f.Overdue {
		if card.DueDate == nil || !card.DueDate.Before(now) {
			return false
		}
	}
	if f.DueSoon {
		if card.DueDate == nil {
			return false
		}
		due := *card.DueDate
		if !due.After(now) || due.After(now.Add(DueSoonWindow)) {
			return false
		}
	}
	if f.DueDateRange.Active() {
		if card.DueDate == nil {
			return false
		}
		due := *card.DueDate
		if f.DueDateRange.Start != nil && due.Before(*f.DueDateRange.Start) {
			return false
		}
		if f.DueDateRange.End != nil && due.After(*f.DueDateRange.End) {
			return false
		}
	}
	return true
}

// Visible drops archived cards.
func Visible(cards []domain.Card) []domain.Card {
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if !c.Archived {
			out = append(out, c)
		}
	}
	return out
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func anyLabel(cardLabels, wanted []string) bool {
	for _, l := range cardLabels {
		for _, w := range wanted {
			if strings.EqualFold(l, w) {
				return true
			}
		}
	}
	return false
}
