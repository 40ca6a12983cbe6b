package domain

import "time"

// Achievement is a named milestone with a one-time point award.
type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Points      int        `json:"points"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
}

// PointEvent is one entry in the rolling recent-points log.
type PointEvent struct {
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// GameState tracks points, level, streaks and achievements for a session.
type GameState struct {
	TotalPoints           int           `json:"totalPoints"`
	Level                 int           `json:"level"`
	TasksCompleted        int           `json:"tasksCompleted"`
	Streak                int           `json:"streak"`
	LastCompletionDate    *time.Time    `json:"lastCompletionDate,omitempty"`
	CompletedToday        int           `json:"completedToday"`
	HighPriorityCompleted int           `json:"highPriorityCompleted"`
	UrgentCompleted       int           `json:"urgentCompleted"`
	Achievements          []Achievement `json:"achievements"`
	RecentPoints          []PointEvent  `json:"recentPoints"`
}

// Clone returns a deep copy of the game state.
func (g GameState) Clone() GameState {
	out := g
	out.LastCompletionDate = cloneTime(g.LastCompletionDate)
	if g.Achievements != nil {
		out.Achievements = make([]Achievement, len(g.Achievements))
		for i, a := range g.Achievements {
			a.UnlockedAt = cloneTime(a.UnlockedAt)
			out.Achievements[i] = a
		}
	}
	if g.RecentPoints != nil {
		out.RecentPoints = make([]PointEvent, len(g.RecentPoints))
		copy(out.RecentPoints, g.RecentPoints)
	}
	return out
}
