package query

import (
	"sort"
	"time"

	"github.com/fastygo/kanban/domain"
)

// UserActivity summarizes one member's cards across boards.
type UserActivity struct {
	User           domain.User `json:"user"`
	Total          int         `json:"total"`
	Completed      int         `json:"completed"`
	InProgress     int         `json:"inProgress"`
	CompletionRate float64     `json:"completionRate"`
}

// BoardOverview summarizes one board.
type BoardOverview struct {
	BoardID    string `json:"boardId"`
	Title      string `json:"title"`
	Color      string `json:"color,omitempty"`
	TotalCards int    `json:"totalCards"`
	Completed  int    `json:"completed"`
	Overdue    int    `json:"overdue"`
	// CompletionsRecorded counts history records, including cards since
	// deleted or archived.
	CompletionsRecorded int `json:"completionsRecorded"`
}

// Dashboard aggregates metrics over every loaded board.
type Dashboard struct {
	TotalCards        int                     `json:"totalCards"`
	Completed         int                     `json:"completed"`
	InProgress        int                     `json:"inProgress"`
	Overdue           int                     `json:"overdue"`
	CompletionRate    float64                 `json:"completionRate"`
	PriorityBreakdown map[domain.Priority]int `json:"priorityBreakdown"`
	TopContributors   []UserActivity          `json:"topContributors"`
	Boards            []BoardOverview         `json:"boards"`
}

const topContributors = 5

// Stats computes dashboard metrics. Archived cards are excluded.
func Stats(boards []domain.Board, metadata []domain.BoardMetadata, users []domain.User, now time.Time) Dashboard {
	d := Dashboard{
		PriorityBreakdown: map[domain.Priority]int{
			domain.PriorityUrgent: 0,
			domain.PriorityHigh:   0,
			domain.PriorityMedium: 0,
			domain.PriorityLow:    0,
		},
		TopContributors: []UserActivity{},
		Boards:          make([]BoardOverview, 0, len(boards)),
	}

	activity := make(map[string]*UserActivity, len(users))
	for _, u := range users {
		activity[u.ID] = &UserActivity{User: u}
	}

	meta := make(map[string]domain.BoardMetadata, len(metadata))
	for _, m := range metadata {
		meta[m.ID] = m
	}

	for _, b := range boards {
		ov := BoardOverview{BoardID: b.ID, Title: b.Title}
		if m, ok := meta[b.ID]; ok {
			ov.Color = m.Color
			ov.CompletionsRecorded = len(m.CompletionHistory)
		}
		for ci := range b.Columns {
			col := &b.Columns[ci]
			for _, card := range col.Cards {
				if card.Archived {
					continue
				}
				completed := card.CompletedAt != nil || col.IsDone()
				inProgress := col.IsInProgress()
				overdue := card.DueDate != nil && card.DueDate.Before(now) && card.CompletedAt == nil

				d.TotalCards++
				ov.TotalCards++
				if completed {
					d.Completed++
					ov.Completed++
				}
				if inProgress {
					d.InProgress++
				}
				if overdue {
					d.Overdue++
					ov.Overdue++
				}
				if _, ok := d.PriorityBreakdown[card.Priority]; ok {
					d.PriorityBreakdown[card.Priority]++
				}
				if ua, ok := activity[card.AssigneeID]; ok {
					ua.Total++
					if card.CompletedAt != nil {
						ua.Completed++
					}
					if inProgress {
						ua.InProgress++
					}
				}
			}
		}
		d.Boards = append(d.Boards, ov)
	}

	d.CompletionRate = percent(d.Completed, d.TotalCards)

	for _, u := range users {
		ua := activity[u.ID]
		if ua.Total == 0 {
			continue
		}
		ua.CompletionRate = percent(ua.Completed, ua.Total)
		d.TopContributors = append(d.TopContributors, *ua)
	}
	sort.SliceStable(d.TopContributors, func(i, j int) bool {
		return d.TopContributors[i].Total > d.TopContributors[j].Total
	})
	if len(d.TopContributors) > topContributors {
		d.TopContributors = d.TopContributors[:topContributors]
	}
	return d
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
