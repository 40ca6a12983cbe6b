package domain

import "time"

// Event is a side effect of a board transition that other state machines
// may react to.
type Event interface {
	EventName() string
}

const (
	EventCardCompleted = "card.completed"
	EventCardStarted   = "card.started"
)

// CardCompleted fires once per true transition into a done column.
type CardCompleted struct {
	BoardID     string    `json:"boardId"`
	CardID      string    `json:"cardId"`
	Priority    Priority  `json:"priority"`
	CompletedAt time.Time `json:"completedAt"`
}

func (CardCompleted) EventName() string { return EventCardCompleted }

// CardStarted fires when a card moves from another column into an
// in-progress column.
type CardStarted struct {
	BoardID string `json:"boardId"`
	CardID  string `json:"cardId"`
}

func (CardStarted) EventName() string { return EventCardStarted }
