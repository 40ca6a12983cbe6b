package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/kanban/api/transport"
	"github.com/fastygo/kanban/pkg/httpcontext"
	"github.com/fastygo/kanban/usecase"
	"github.com/fastygo/kanban/usecase/game"
)

type GameHandler struct {
	baseHandler
	store      *usecase.Store
	dispatcher *usecase.Dispatcher
}

func NewGameHandler(store *usecase.Store, dispatcher *usecase.Dispatcher, adapter *httpcontext.Adapter, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
		dispatcher:  dispatcher,
	}
}

// @Summary Get gamification state
// @Tags game
// @Router /api/v1/game [get]
func (h *GameHandler) Get(ctx *fasthttp.RequestCtx) {
	_, g := h.store.Snapshot()
	h.respondSuccess(ctx, http.StatusOK, g)
}

// @Summary Apply a game action
// @Tags game
// @Router /api/v1/game/actions [post]
func (h *GameHandler) Dispatch(ctx *fasthttp.RequestCtx) {
	var req transport.ActionRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	action, err := h.dispatcher.DecodeGame(req.Type, req.Payload)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	_, prev := h.store.Snapshot()
	next := h.store.DispatchGame(action)
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"state":    next,
		"unlocked": game.Unlocked(prev, next),
	})
}
