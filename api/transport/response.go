package transport

import (
	"encoding/json"

	"github.com/fastygo/kanban/domain"
)

// Envelope is the standard API response wrapper used for both success and error payloads.
type Envelope struct {
	Status string      `json:"status"`
	Code   string      `json:"code,omitempty"`
	Data   interface{} `json:"data,omitempty"`
	Error  interface{} `json:"error,omitempty"`
	Meta   interface{} `json:"meta,omitempty"`
}

// NewSuccess returns a success envelope.
func NewSuccess(data interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "success",
		Data:   data,
		Meta:   meta,
	}
}

// NewError returns an error envelope with optional metadata.
func NewError(code string, err interface{}, meta interface{}) Envelope {
	return Envelope{
		Status: "error",
		Code:   code,
		Error:  err,
		Meta:   meta,
	}
}

// String returns the JSON representation (best-effort) for logging purposes.
func (e Envelope) String() string {
	out, err := json.Marshal(e)
	if err != nil {
		return "{}"
	}
	return string(out)
}

// BoardList is the board switcher payload.
type BoardList struct {
	Boards        []domain.BoardMetadata `json:"boards"`
	ActiveBoardID string                 `json:"activeBoardId"`
	Revision      uint64                 `json:"revision"`
}

// Event is a domain event tagged with its name.
type Event struct {
	Name string       `json:"name"`
	Data domain.Event `json:"data"`
}

// NewEvents tags each event with its name.
func NewEvents(events []domain.Event) []Event {
	out := make([]Event, 0, len(events))
	for _, ev := range events {
		out = append(out, Event{Name: ev.EventName(), Data: ev})
	}
	return out
}

// ActionResult is returned after a board action was applied.
type ActionResult struct {
	ActiveBoardID string        `json:"activeBoardId"`
	Board         *domain.Board `json:"board,omitempty"`
	Revision      uint64        `json:"revision"`
	Changed       bool          `json:"changed"`
	Events        []Event       `json:"events"`
}

// CardList is the filtered card listing for one board.
type CardList struct {
	BoardID string        `json:"boardId"`
	Cards   []domain.Card `json:"cards"`
	Total   int           `json:"total"`
}
