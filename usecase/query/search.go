package query

import (
	"sort"
	"strings"
	"time"

	"github.com/fastygo/kanban/domain"
)

// Search keeps cards whose title, description or any label contains term,
// ignoring case. A blank term passes everything.
func Search(cards []domain.Card, term string) []domain.Card {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return cards
	}
	out := make([]domain.Card, 0, len(cards))
	for _, c := range cards {
		if matchesTerm(c, term) {
			out = append(out, c)
		}
	}
	return out
}

func matchesTerm(c domain.Card, term string) bool {
	if strings.Contains(strings.ToLower(c.Title), term) {
		return true
	}
	if strings.Contains(strings.ToLower(c.Description), term) {
		return true
	}
	for _, l := range c.Labels {
		if strings.Contains(strings.ToLower(l), term) {
			return true
		}
	}
	return false
}

// BoardCards flattens every card of the board.
func BoardCards(b domain.Board) []domain.Card {
	return b.Cards()
}

// Archived returns archived cards, most recently archived first.
func Archived(cards []domain.Card) []domain.Card {
	out := make([]domain.Card, 0)
	for _, c := range cards {
		if c.Archived {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].ArchivedAt, out[j].ArchivedAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out
}

// FilterBoard returns a copy of b whose columns only hold cards passing the
// default visibility rule, the search term and the filters.
func FilterBoard(b domain.Board, term string, f Filters, now time.Time) domain.Board {
	out := b.Clone()
	for i := range out.Columns {
		cards := Visible(out.Columns[i].Cards)
		cards = Search(cards, term)
		out.Columns[i].Cards = ApplyFilters(cards, f, now)
	}
	return out
}
