package game

import (
	"fmt"
	"time"

	"github.com/fastygo/kanban/domain"
)

const (
	// RecentPointsLimit bounds the rolling point-award log.
	RecentPointsLimit = 5
	progressPoints    = 5
	pointsPerLevel    = 100
)

var pointsForPriority = map[domain.Priority]int{
	domain.PriorityLow:    10,
	domain.PriorityMedium: 20,
	domain.PriorityHigh:   35,
	domain.PriorityUrgent: 50,
}

// PointsFor returns the award for completing a task of the given priority.
// Unknown priorities score as medium.
func PointsFor(p domain.Priority) int {
	if pts, ok := pointsForPriority[p]; ok {
		return pts
	}
	return pointsForPriority[domain.PriorityMedium]
}

// LevelFor derives the level from a point total.
func LevelFor(points int) int {
	if points < 0 {
		points = 0
	}
	return points/pointsPerLevel + 1
}

// Action is a gamification state transition request.
type Action interface {
	Type() string
}

const (
	TypeTaskCompleted       = "TASK_COMPLETED"
	TypeTaskMovedToProgress = "TASK_MOVED_TO_PROGRESS"
	TypeAchievementUnlocked = "ACHIEVEMENT_UNLOCKED"
	TypeClearRecentPoints   = "CLEAR_RECENT_POINTS"
)

type TaskCompleted struct {
	Priority domain.Priority `json:"priority"`
}

type TaskMovedToProgress struct{}

type AchievementUnlocked struct {
	ID string `json:"achievementId"`
}

type ClearRecentPoints struct{}

func (TaskCompleted) Type() string       { return TypeTaskCompleted }
func (TaskMovedToProgress) Type() string { return TypeTaskMovedToProgress }
func (AchievementUnlocked) Type() string { return TypeAchievementUnlocked }
func (ClearRecentPoints) Type() string   { return TypeClearRecentPoints }

// Env configures clock, calendar and the achievement award policy.
type Env struct {
	Now      func() time.Time
	Location *time.Location

	// AwardAchievementPoints adds an achievement's points when TaskCompleted
	// unlocks it. Off by default: only AchievementUnlocked awards points.
	AwardAchievementPoints bool
}

func (e Env) withDefaults() Env {
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.Location == nil {
		e.Location = time.Local
	}
	return e
}

// NewState returns the initial session state.
func NewState() domain.GameState {
	return domain.GameState{
		Level:        1,
		Achievements: Catalog(),
		RecentPoints: []domain.PointEvent{},
	}
}

// Reduce applies action to s. s is never mutated.
func Reduce(s domain.GameState, action Action, env Env) domain.GameState {
	env = env.withDefaults()
	switch a := action.(type) {
	case TaskCompleted:
		return taskCompleted(s, a, env)
	case TaskMovedToProgress:
		next := s.Clone()
		now := env.Now()
		next.TotalPoints += progressPoints
		next.Level = LevelFor(next.TotalPoints)
		next.RecentPoints = appendRecent(next.RecentPoints, domain.PointEvent{
			Amount:    progressPoints,
			Reason:    "Moved task to In Progress",
			Timestamp: now,
		})
		return next
	case AchievementUnlocked:
		idx := achievementIndex(s.Achievements, a.ID)
		if idx < 0 || s.Achievements[idx].Unlocked {
			return s
		}
		next := s.Clone()
		now := env.Now()
		next.TotalPoints += next.Achievements[idx].Points
		next.Level = LevelFor(next.TotalPoints)
		next.Achievements[idx].Unlocked = true
		next.Achievements[idx].UnlockedAt = domain.TimePtr(now)
		return next
	case ClearRecentPoints:
		next := s.Clone()
		next.RecentPoints = []domain.PointEvent{}
		return next
	}
	return s
}

func taskCompleted(s domain.GameState, a TaskCompleted, env Env) domain.GameState {
	next := s.Clone()
	now := env.Now()
	points := PointsFor(a.Priority)
	priority := a.Priority
	if _, ok := pointsForPriority[priority]; !ok {
		priority = domain.PriorityMedium
	}

	next.TotalPoints += points
	next.TasksCompleted++
	if priority == domain.PriorityHigh || priority == domain.PriorityUrgent {
		next.HighPriorityCompleted++
	}
	if priority == domain.PriorityUrgent {
		next.UrgentCompleted++
	}

	local := now.In(env.Location)
	today := calendarDay(local)
	switch {
	case next.LastCompletionDate == nil:
		next.Streak = 1
		next.CompletedToday = 1
	default:
		last := calendarDay(next.LastCompletionDate.In(env.Location))
		switch daysBetween(last, today) {
		case 0:
			if next.Streak == 0 {
				next.Streak = 1
			}
			next.CompletedToday++
		case 1:
			next.Streak++
			next.CompletedToday = 1
		default:
			next.Streak = 1
			next.CompletedToday = 1
		}
	}
	next.LastCompletionDate = domain.TimePtr(now)

	next.RecentPoints = appendRecent(next.RecentPoints, domain.PointEvent{
		Amount:    points,
		Reason:    fmt.Sprintf("Completed %s priority task", priority),
		Timestamp: now,
	})
	next.Level = LevelFor(next.TotalPoints)

	// Awarding points can lift the level, which can unlock further
	// achievements, so evaluate until nothing new unlocks.
	for {
		unlockedAny := false
		p := progress{state: next, at: local}
		for i := range next.Achievements {
			ach := &next.Achievements[i]
			if ach.Unlocked {
				continue
			}
			def, ok := lookup(ach.ID)
			if !ok || !def.unlock(p) {
				continue
			}
			ach.Unlocked = true
			ach.UnlockedAt = domain.TimePtr(now)
			unlockedAny = true
			if env.AwardAchievementPoints {
				next.TotalPoints += ach.Points
				next.Level = LevelFor(next.TotalPoints)
			}
		}
		if !unlockedAny || !env.AwardAchievementPoints {
			break
		}
	}
	return next
}

func appendRecent(log []domain.PointEvent, ev domain.PointEvent) []domain.PointEvent {
	log = append(log, ev)
	if len(log) > RecentPointsLimit {
		log = append([]domain.PointEvent(nil), log[len(log)-RecentPointsLimit:]...)
	}
	return log
}

func achievementIndex(list []domain.Achievement, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// Unlocked returns the ids of achievements unlocked in next but not in prev.
func Unlocked(prev, next domain.GameState) []string {
	var ids []string
	for _, a := range next.Achievements {
		if !a.Unlocked {
			continue
		}
		if idx := achievementIndex(prev.Achievements, a.ID); idx >= 0 && prev.Achievements[idx].Unlocked {
			continue
		}
		ids = append(ids, a.ID)
	}
	return ids
}

// Normalize reconciles a restored state with the current catalog: missing
// achievements are added locked, unknown ones dropped, unlock flags kept,
// and the level recomputed from the point total.
func Normalize(s domain.GameState) domain.GameState {
	next := s.Clone()
	achievements := Catalog()
	for i := range achievements {
		if idx := achievementIndex(s.Achievements, achievements[i].ID); idx >= 0 && s.Achievements[idx].Unlocked {
			achievements[i].Unlocked = true
			achievements[i].UnlockedAt = s.Achievements[idx].UnlockedAt
		}
	}
	next.Achievements = achievements
	if next.RecentPoints == nil {
		next.RecentPoints = []domain.PointEvent{}
	}
	if len(next.RecentPoints) > RecentPointsLimit {
		next.RecentPoints = next.RecentPoints[len(next.RecentPoints)-RecentPointsLimit:]
	}
	if next.TotalPoints < 0 {
		next.TotalPoints = 0
	}
	next.Level = LevelFor(next.TotalPoints)
	return next
}
