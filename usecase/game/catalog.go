package game

import (
	"time"

	"github.com/fastygo/kanban/domain"
)

// progress is the counter snapshot achievement predicates are evaluated on.
type progress struct {
	state domain.GameState
	at    time.Time
}

type definition struct {
	achievement domain.Achievement
	unlock      func(p progress) bool
}

var catalog = []definition{
	{
		achievement: domain.Achievement{ID: "first-task", Title: "Getting Started", Description: "Complete your first task", Icon: "🎯", Points: 50},
		unlock:      func(p progress) bool { return p.state.TasksCompleted >= 1 },
	},
	{
		achievement: domain.Achievement{ID: "speed-demon", Title: "Speed Demon", Description: "Complete 5 tasks in one day", Icon: "⚡", Points: 100},
		unlock:      func(p progress) bool { return p.state.CompletedToday >= 5 },
	},
	{
		achievement: domain.Achievement{ID: "task-master", Title: "Task Master", Description: "Complete 25 tasks", Icon: "👑", Points: 200},
		unlock:      func(p progress) bool { return p.state.TasksCompleted >= 25 },
	},
	{
		achievement: domain.Achievement{ID: "high-priority-hero", Title: "High Priority Hero", Description: "Complete 10 high or urgent priority tasks", Icon: "🔥", Points: 150},
		unlock:      func(p progress) bool { return p.state.HighPriorityCompleted >= 10 },
	},
	{
		achievement: domain.Achievement{ID: "urgent-responder", Title: "Urgent Responder", Description: "Complete 5 urgent tasks", Icon: "🚨", Points: 120},
		unlock:      func(p progress) bool { return p.state.UrgentCompleted >= 5 },
	},
	{
		achievement: domain.Achievement{ID: "on-a-roll", Title: "On a Roll", Description: "Complete tasks 3 days in a row", Icon: "📆", Points: 75},
		unlock:      func(p progress) bool { return p.state.Streak >= 3 },
	},
	{
		achievement: domain.Achievement{ID: "week-warrior", Title: "Week Warrior", Description: "Complete tasks 7 days in a row", Icon: "🗓️", Points: 250},
		unlock:      func(p progress) bool { return p.state.Streak >= 7 },
	},
	{
		achievement: domain.Achievement{ID: "point-collector", Title: "Point Collector", Description: "Earn 1000 points", Icon: "💎", Points: 100},
		unlock:      func(p progress) bool { return p.state.TotalPoints >= 1000 },
	},
	{
		achievement: domain.Achievement{ID: "productivity-guru", Title: "Productivity Guru", Description: "Reach level 10", Icon: "🧙‍♂️", Points: 500},
		unlock:      func(p progress) bool { return p.state.Level >= 10 },
	},
	{
		achievement: domain.Achievement{ID: "night-owl", Title: "Night Owl", Description: "Complete a task between 22:00 and 05:00", Icon: "🦉", Points: 40},
		unlock: func(p progress) bool {
			h := p.at.Hour()
			return h >= 22 || h < 5
		},
	},
	{
		achievement: domain.Achievement{ID: "early-bird", Title: "Early Bird", Description: "Complete a task between 05:00 and 08:00", Icon: "🐦", Points: 40},
		unlock: func(p progress) bool {
			h := p.at.Hour()
			return h >= 5 && h < 8
		},
	},
	{
		achievement: domain.Achievement{ID: "weekend-warrior", Title: "Weekend Warrior", Description: "Complete a task on the weekend", Icon: "🏖️", Points: 60},
		unlock: func(p progress) bool {
			d := p.at.Weekday()
			return d == time.Saturday || d == time.Sunday
		},
	},
}

// Catalog returns a fresh, fully locked copy of the achievement catalog.
func Catalog() []domain.Achievement {
	out := make([]domain.Achievement, len(catalog))
	for i, def := range catalog {
		out[i] = def.achievement
	}
	return out
}

func lookup(id string) (definition, bool) {
	for _, def := range catalog {
		if def.achievement.ID == id {
			return def, true
		}
	}
	return definition{}, false
}
