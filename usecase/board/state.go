package board

import (
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/kanban/domain"
)

// State is the full board-side client state. ActiveBoardID is empty when
// no board is active.
type State struct {
	Boards        []domain.Board         `json:"boards"`
	Metadata      []domain.BoardMetadata `json:"boardMetadata"`
	ActiveBoardID string                 `json:"activeBoardId,omitempty"`
	Users         []domain.User          `json:"users"`
	CurrentUserID string                 `json:"currentUserId,omitempty"`

	// Revision increases on every change to Boards or Metadata.
	Revision uint64 `json:"revision"`
}

// NewState returns the empty initial state with the default roster.
func NewState() State {
	users := domain.DefaultRoster()
	return State{
		Boards:        []domain.Board{},
		Metadata:      []domain.BoardMetadata{},
		Users:         users,
		CurrentUserID: users[0].ID,
	}
}

// ActiveBoard returns a copy of the active board.
func (s State) ActiveBoard() (domain.Board, bool) {
	idx := s.boardIndex(s.ActiveBoardID)
	if idx < 0 {
		return domain.Board{}, false
	}
	return s.Boards[idx].Clone(), true
}

// Board returns a copy of the board with the given id.
func (s State) Board(id string) (domain.Board, bool) {
	idx := s.boardIndex(id)
	if idx < 0 {
		return domain.Board{}, false
	}
	return s.Boards[idx].Clone(), true
}

// MetadataFor returns a copy of the metadata record for a board id.
func (s State) MetadataFor(id string) (domain.BoardMetadata, bool) {
	idx := s.metadataIndex(id)
	if idx < 0 {
		return domain.BoardMetadata{}, false
	}
	return s.Metadata[idx].Clone(), true
}

// HasBoard reports whether a board with the id is loaded.
func (s State) HasBoard(id string) bool {
	return id != "" && s.boardIndex(id) >= 0
}

// CurrentUser returns the roster entry for CurrentUserID.
func (s State) CurrentUser() (domain.User, bool) {
	for _, u := range s.Users {
		if u.ID == s.CurrentUserID {
			return u, true
		}
	}
	return domain.User{}, false
}

func (s State) boardIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Boards {
		if s.Boards[i].ID == id {
			return i
		}
	}
	return -1
}

func (s State) metadataIndex(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.Metadata {
		if s.Metadata[i].ID == id {
			return i
		}
	}
	return -1
}

// Env supplies the clock and id generator used by the reducer.
type Env struct {
	Now   func() time.Time
	NewID func() string
}

func (e Env) withDefaults() Env {
	if e.Now == nil {
		e.Now = time.Now
	}
	if e.NewID == nil {
		e.NewID = uuid.NewString
	}
	return e
}

// Result is the outcome of a single reduction.
type Result struct {
	State  State
	Events []domain.Event
}

// Changed reports whether the boards/metadata portion moved forward from prev.
func (r Result) Changed(prev State) bool {
	return r.State.Revision != prev.Revision
}
