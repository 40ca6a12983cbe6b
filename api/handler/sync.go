package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/kanban/api/transport"
	"github.com/fastygo/kanban/pkg/httpcontext"
	"github.com/fastygo/kanban/usecase"
)

// Drainer replays writes that previously failed to reach the remote store.
type Drainer interface {
	Drain(ctx context.Context) error
	Size() int
}

type SyncHandler struct {
	baseHandler
	syncer  usecase.Syncer
	drainer Drainer
}

func NewSyncHandler(syncer usecase.Syncer, drainer Drainer, adapter *httpcontext.Adapter, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		baseHandler: newBaseHandler(adapter, logger),
		syncer:      syncer,
		drainer:     drainer,
	}
}

type syncReport struct {
	usecase.SyncStatus
	Outbox int `json:"outbox"`
}

func (h *SyncHandler) report() syncReport {
	r := syncReport{SyncStatus: h.syncer.Status()}
	if h.drainer != nil {
		r.Outbox = h.drainer.Size()
	}
	return r
}

// @Summary Write-back status
// @Tags sync
// @Router /api/v1/sync [get]
func (h *SyncHandler) Status(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, h.report())
}

// @Summary Write the current state now and replay the outbox
// @Tags sync
// @Router /api/v1/sync/flush [post]
func (h *SyncHandler) Flush(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	err := h.syncer.Flush(stdCtx)
	if err == nil && h.drainer != nil {
		err = h.drainer.Drain(stdCtx)
	}
	if err != nil {
		h.log(stdCtx).Warn("manual flush incomplete", zap.Error(err))
		h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEFERRED", err.Error(), h.report()))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, h.report())
}
