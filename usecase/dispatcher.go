package usecase

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/usecase/board"
	"github.com/fastygo/kanban/usecase/game"
)

type BoardDecoder func(payload json.RawMessage) (board.Action, error)
type GameDecoder func(payload json.RawMessage) (game.Action, error)

// Dispatcher maps action type names to payload decoders so transports can
// accept {"type": ..., "payload": ...} envelopes.
type Dispatcher struct {
	boardDecoders map[string]BoardDecoder
	gameDecoders  map[string]GameDecoder
	mu            sync.RWMutex
}

// NewDispatcher returns a dispatcher with every client-facing action
// registered. SET_BOARDS is dispatched by hydration only and has no decoder.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		boardDecoders: make(map[string]BoardDecoder),
		gameDecoders:  make(map[string]GameDecoder),
	}

	d.RegisterBoardAction(board.TypeSetActiveBoard, boardDecoder[board.SetActiveBoard]())
	d.RegisterBoardAction(board.TypeCreateBoard, boardDecoder[board.CreateBoard]())
	d.RegisterBoardAction(board.TypeUpdateBoardMetadata, boardDecoder[board.UpdateBoardMetadata]())
	d.RegisterBoardAction(board.TypeDeleteBoard, boardDecoder[board.DeleteBoard]())
	d.RegisterBoardAction(board.TypeAddCard, boardDecoder[board.AddCard]())
	d.RegisterBoardAction(board.TypeUpdateCard, boardDecoder[board.UpdateCard]())
	d.RegisterBoardAction(board.TypeDeleteCard, boardDecoder[board.DeleteCard]())
	d.RegisterBoardAction(board.TypeArchiveCard, boardDecoder[board.ArchiveCard]())
	d.RegisterBoardAction(board.TypeRestoreCard, boardDecoder[board.RestoreCard]())
	d.RegisterBoardAction(board.TypeMoveCard, boardDecoder[board.MoveCard]())
	d.RegisterBoardAction(board.TypeAddColumn, boardDecoder[board.AddColumn]())
	d.RegisterBoardAction(board.TypeUpdateColumn, boardDecoder[board.UpdateColumn]())
	d.RegisterBoardAction(board.TypeDeleteColumn, boardDecoder[board.DeleteColumn]())
	d.RegisterBoardAction(board.TypeAddCategory, boardDecoder[board.AddCategory]())
	d.RegisterBoardAction(board.TypeUpdateCategory, boardDecoder[board.UpdateCategory]())
	d.RegisterBoardAction(board.TypeDeleteCategory, boardDecoder[board.DeleteCategory]())
	d.RegisterBoardAction(board.TypeAddComment, boardDecoder[board.AddComment]())
	d.RegisterBoardAction(board.TypeSetCurrentUser, boardDecoder[board.SetCurrentUser]())

	d.RegisterGameAction(game.TypeTaskCompleted, gameDecoder[game.TaskCompleted]())
	d.RegisterGameAction(game.TypeTaskMovedToProgress, gameDecoder[game.TaskMovedToProgress]())
	d.RegisterGameAction(game.TypeAchievementUnlocked, gameDecoder[game.AchievementUnlocked]())
	d.RegisterGameAction(game.TypeClearRecentPoints, gameDecoder[game.ClearRecentPoints]())

	return d
}

func (d *Dispatcher) RegisterBoardAction(name string, dec BoardDecoder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.boardDecoders[name] = dec
}

func (d *Dispatcher) RegisterGameAction(name string, dec GameDecoder) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gameDecoders[name] = dec
}

// DecodeBoard turns a named payload into a board action.
func (d *Dispatcher) DecodeBoard(name string, payload json.RawMessage) (board.Action, error) {
	d.mu.RLock()
	dec, ok := d.boardDecoders[name]
	d.mu.RUnlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrCodeInvalid, fmt.Sprintf("board action %s not registered", name), domain.ErrUnknownAction)
	}
	return dec(payload)
}

// DecodeGame turns a named payload into a game action.
func (d *Dispatcher) DecodeGame(name string, payload json.RawMessage) (game.Action, error) {
	d.mu.RLock()
	dec, ok := d.gameDecoders[name]
	d.mu.RUnlock()
	if !ok {
		return nil, domain.WrapError(domain.ErrCodeInvalid, fmt.Sprintf("game action %s not registered", name), domain.ErrUnknownAction)
	}
	return dec(payload)
}

func boardDecoder[T board.Action]() BoardDecoder {
	return func(payload json.RawMessage) (board.Action, error) {
		v, err := decodeInto[T](payload)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func gameDecoder[T game.Action]() GameDecoder {
	return func(payload json.RawMessage) (game.Action, error) {
		v, err := decodeInto[T](payload)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func decodeInto[T any](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 || string(payload) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, domain.WrapError(domain.ErrCodeInvalid, "decode action payload", err)
	}
	return v, nil
}
