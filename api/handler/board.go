package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/kanban/api/transport"
	"github.com/fastygo/kanban/domain"
	"github.com/fastygo/kanban/pkg/httpcontext"
	"github.com/fastygo/kanban/usecase"
	"github.com/fastygo/kanban/usecase/board"
	"github.com/fastygo/kanban/usecase/query"
)

type BoardHandler struct {
	baseHandler
	store      *usecase.Store
	dispatcher *usecase.Dispatcher
}

func NewBoardHandler(store *usecase.Store, dispatcher *usecase.Dispatcher, adapter *httpcontext.Adapter, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{
		baseHandler: newBaseHandler(adapter, logger),
		store:       store,
		dispatcher:  dispatcher,
	}
}

// @Summary List boards
// @Tags boards
// @Router /api/v1/boards [get]
func (h *BoardHandler) List(ctx *fasthttp.RequestCtx) {
	st, _ := h.store.Snapshot()
	h.respondSuccess(ctx, http.StatusOK, transport.BoardList{
		Boards:        st.Metadata,
		ActiveBoardID: st.ActiveBoardID,
		Revision:      st.Revision,
	})
}

// @Summary Get board
// @Tags boards
// @Router /api/v1/boards/{id} [get]
func (h *BoardHandler) Get(ctx *fasthttp.RequestCtx) {
	b, ok := h.board(ctx)
	if !ok {
		return
	}
	h.respondSuccess(ctx, http.StatusOK, b)
}

// @Summary Switch the active board
// @Tags boards
// @Router /api/v1/boards/active [put]
func (h *BoardHandler) SetActive(ctx *fasthttp.RequestCtx) {
	var req transport.ActiveBoardRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	if req.ID == "" {
		h.respondInvalid(ctx, "missing board id")
		return
	}
	h.apply(ctx, board.SetActiveBoard{ID: req.ID})
}

// @Summary Apply a board action
// @Tags boards
// @Router /api/v1/boards/actions [post]
func (h *BoardHandler) Dispatch(ctx *fasthttp.RequestCtx) {
	var req transport.ActionRequest
	if !h.decodeBody(ctx, &req) {
		return
	}
	action, err := h.dispatcher.DecodeBoard(req.Type, req.Payload)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if c, ok := action.(board.AddComment); ok && c.AuthorID == "" {
		c.AuthorID = httpcontext.UserID(ctx)
		action = c
	}
	h.apply(ctx, action)
}

func (h *BoardHandler) apply(ctx *fasthttp.RequestCtx, action board.Action) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	change, err := h.store.ApplyBoard(action)
	if err != nil {
		h.log(stdCtx).Debug("board action rejected", zap.String("action", action.Type()), zap.Error(err))
		h.respondError(ctx, err)
		return
	}

	out := transport.ActionResult{
		ActiveBoardID: change.Next.ActiveBoardID,
		Revision:      change.Next.Revision,
		Changed:       change.BoardsChanged(),
		Events:        transport.NewEvents(change.Events),
	}
	if active, ok := change.Next.ActiveBoard(); ok {
		out.Board = &active
	}
	h.respondSuccess(ctx, http.StatusOK, out)
}

// @Summary List cards of a board with search and filters
// @Tags boards
// @Router /api/v1/boards/{id}/cards [get]
func (h *BoardHandler) Cards(ctx *fasthttp.RequestCtx) {
	b, ok := h.board(ctx)
	if !ok {
		return
	}
	q, err := parseCardQuery(ctx.QueryArgs(), h.store.Location())
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	cards := query.BoardCards(b)
	switch q.Archived {
	case archivedOnly:
		cards = query.Archived(cards)
	case archivedInclude:
	default:
		cards = query.Visible(cards)
	}
	cards = query.Search(cards, q.Term)
	cards = query.ApplyFilters(cards, q.Filters, h.store.Now())

	h.respondSuccess(ctx, http.StatusOK, transport.CardList{BoardID: b.ID, Cards: cards, Total: len(cards)})
}

// @Summary Timeline bars for a board
// @Tags boards
// @Router /api/v1/boards/{id}/timeline [get]
func (h *BoardHandler) Timeline(ctx *fasthttp.RequestCtx) {
	b, ok := h.board(ctx)
	if !ok {
		return
	}
	loc := h.store.Location()
	args := ctx.QueryArgs()
	now := h.store.Now().In(loc)

	start, end := query.WeekRange(now)
	if string(args.Peek("range")) == "month" {
		start, end = query.MonthRange(now)
	}
	from, err := parseTime(string(args.Peek("start")), loc, false)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	to, err := parseTime(string(args.Peek("end")), loc, true)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if from != nil {
		start = *from
	}
	if to != nil {
		end = *to
	}
	if end.Before(start) {
		h.respondInvalid(ctx, "end precedes start")
		return
	}

	bars := query.Timeline(query.Visible(query.BoardCards(b)), start, end)
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"boardId": b.ID,
		"start":   start,
		"end":     end,
		"bars":    bars,
	})
}

// @Summary Cards due on a calendar day
// @Tags boards
// @Router /api/v1/boards/{id}/calendar [get]
func (h *BoardHandler) Calendar(ctx *fasthttp.RequestCtx) {
	b, ok := h.board(ctx)
	if !ok {
		return
	}
	loc := h.store.Location()
	day := h.store.Now()
	parsed, err := parseTime(string(ctx.QueryArgs().Peek("date")), loc, false)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	if parsed != nil {
		day = *parsed
	}
	cards := query.DueOn(query.Visible(query.BoardCards(b)), day, loc)
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"boardId": b.ID,
		"date":    day.In(loc).Format(dateLayout),
		"cards":   cards,
	})
}

// @Summary Dashboard statistics across boards
// @Tags stats
// @Router /api/v1/stats [get]
func (h *BoardHandler) Stats(ctx *fasthttp.RequestCtx) {
	st, _ := h.store.Snapshot()
	h.respondSuccess(ctx, http.StatusOK, query.Stats(st.Boards, st.Metadata, st.Users, h.store.Now()))
}

func (h *BoardHandler) board(ctx *fasthttp.RequestCtx) (domain.Board, bool) {
	id := pathParam(ctx, "id")
	st, _ := h.store.Snapshot()
	b, ok := st.Board(id)
	if !ok {
		h.respondError(ctx, domain.ErrBoardNotFound)
		return domain.Board{}, false
	}
	return b, true
}
