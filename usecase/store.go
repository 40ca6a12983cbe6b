package usecase

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/usecase/board"
	"github.com/fastygo/kanban/usecase/game"
)

// StoreOptions configures a Store.
type StoreOptions struct {
	BoardEnv board.Env
	GameEnv  game.Env

	// StrictActiveDelete refuses to delete the active board while other
	// boards exist.
	StrictActiveDelete bool

	Logger *zap.Logger
}

// Change describes one dispatch as seen by subscribers.
type Change struct {
	Prev     board.State
	Next     board.State
	PrevGame domain.GameState
	NextGame domain.GameState
	Events   []domain.Event

	// GameChanged is set when a game action was applied.
	GameChanged bool
	// Unlocked lists achievements that became unlocked in this dispatch.
	Unlocked []string
}

// BoardsChanged reports whether boards or metadata changed.
func (c Change) BoardsChanged() bool {
	return c.Next.Revision != c.Prev.Revision
}

// ActiveChanged reports whether the active board switched.
func (c Change) ActiveChanged() bool {
	return c.Next.ActiveBoardID != c.Prev.ActiveBoardID
}

// Store owns the board and game state for the process. Dispatches are
// serialized; subscribers run synchronously after each dispatch and must
// not dispatch themselves.
type Store struct {
	dispatchMu sync.Mutex

	mu    sync.RWMutex
	state board.State
	game  domain.GameState

	subsMu  sync.RWMutex
	subs    map[uint64]func(Change)
	nextSub uint64

	boardEnv           board.Env
	gameEnv            game.Env
	strictActiveDelete bool
	logger             *zap.Logger
}

// NewStore creates a store holding the empty initial state.
func NewStore(opts StoreOptions) *Store {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.BoardEnv.Now == nil {
		opts.BoardEnv.Now = time.Now
	}
	if opts.GameEnv.Now == nil {
		opts.GameEnv.Now = opts.BoardEnv.Now
	}
	return &Store{
		state:              board.NewState(),
		game:               game.NewState(),
		subs:               make(map[uint64]func(Change)),
		boardEnv:           opts.BoardEnv,
		gameEnv:            opts.GameEnv,
		strictActiveDelete: opts.StrictActiveDelete,
		logger:             opts.Logger,
	}
}

// DispatchBoard applies a board action and routes its domain events to
// the game reducer.
func (s *Store) DispatchBoard(action board.Action) (board.Result, error) {
	change, err := s.ApplyBoard(action)
	return board.Result{State: change.Next, Events: change.Events}, err
}

// ApplyBoard is DispatchBoard returning the whole Change. Prev is the state
// the action was reduced from, taken under the dispatch lock.
func (s *Store) ApplyBoard(action board.Action) (Change, error) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	prev, prevGame := s.Snapshot()
	if err := s.guard(prev, action); err != nil {
		return Change{Prev: prev, Next: prev, PrevGame: prevGame, NextGame: prevGame}, err
	}

	res := board.Reduce(prev, action, s.boardEnv)
	nextGame := prevGame
	gameChanged := false
	for _, ev := range res.Events {
		if ga := gameActionFor(ev); ga != nil {
			nextGame = game.Reduce(nextGame, ga, s.gameEnv)
			gameChanged = true
		}
	}

	s.mu.Lock()
	s.state = res.State
	s.game = nextGame
	s.mu.Unlock()

	change := Change{
		Prev:        prev,
		Next:        res.State,
		PrevGame:    prevGame,
		NextGame:    nextGame,
		Events:      res.Events,
		GameChanged: gameChanged,
	}
	if gameChanged {
		change.Unlocked = game.Unlocked(prevGame, nextGame)
	}

	s.logger.Debug("board action applied",
		zap.String("action", action.Type()),
		zap.Uint64("revision", res.State.Revision),
		zap.Int("events", len(res.Events)))
	for _, id := range change.Unlocked {
		s.logger.Info("achievement unlocked", zap.String("achievement", id))
	}

	s.notify(change)
	return change, nil
}

// DispatchGame applies a game action directly.
func (s *Store) DispatchGame(action game.Action) domain.GameState {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	prev, prevGame := s.Snapshot()
	nextGame := game.Reduce(prevGame, action, s.gameEnv)

	s.mu.Lock()
	s.game = nextGame
	s.mu.Unlock()

	change := Change{
		Prev:        prev,
		Next:        prev,
		PrevGame:    prevGame,
		NextGame:    nextGame,
		GameChanged: true,
		Unlocked:    game.Unlocked(prevGame, nextGame),
	}
	s.logger.Debug("game action applied", zap.String("action", action.Type()), zap.Int("total_points", nextGame.TotalPoints))
	s.notify(change)
	return nextGame
}

// Snapshot returns the current board and game state. Callers must treat
// both as read-only.
func (s *Store) Snapshot() (board.State, domain.GameState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.game
}

// RestoreGame replaces the game state without notifying subscribers.
func (s *Store) RestoreGame(state domain.GameState) {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()
	s.mu.Lock()
	s.game = game.Normalize(state)
	s.mu.Unlock()
}

// Subscribe registers fn for every subsequent dispatch and returns a
// function that removes it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

// Now returns the store clock.
func (s *Store) Now() time.Time {
	return s.boardEnv.Now()
}

// Location returns the calendar zone used by the game reducer.
func (s *Store) Location() *time.Location {
	if s.gameEnv.Location == nil {
		return time.Local
	}
	return s.gameEnv.Location
}

func (s *Store) guard(st board.State, action board.Action) error {
	switch a := action.(type) {
	case board.SetActiveBoard:
		if !st.HasBoard(a.ID) {
			return domain.ErrBoardNotFound
		}
	case board.DeleteBoard:
		if s.strictActiveDelete && a.ID == st.ActiveBoardID && len(st.Boards) > 1 {
			return domain.ErrActiveBoardProtected
		}
	}
	return nil
}

func (s *Store) notify(change Change) {
	s.subsMu.RLock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range subs {
		fn(change)
	}
}

func gameActionFor(ev domain.Event) game.Action {
	switch e := ev.(type) {
	case domain.CardCompleted:
		return game.TaskCompleted{Priority: e.Priority}
	case domain.CardStarted:
		return game.TaskMovedToProgress{}
	}
	return nil
}
