package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/kanban/api/transport"
	"github.com/fastygo/kanban/internal/infrastructure/monitor"
	"github.com/fastygo/kanban/pkg/httpcontext"
)

// StatusSource reports connectivity of the persistence tiers.
type StatusSource interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	monitor StatusSource
}

func NewHealthHandler(mon StatusSource, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	mode := "online"
	switch {
	case status.RemoteBackend == "":
		mode = "local"
	case !status.Remote:
		mode = "offline"
	}
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"mode":      mode,
		"services": map[string]interface{}{
			"remote": map[string]interface{}{
				"backend": status.RemoteBackend,
				"online":  status.Remote,
			},
			"local_cache": map[string]interface{}{
				"online":  status.LocalCache,
				"pending": status.PendingSync,
			},
		},
		"last_check": status.LastCheck,
	}

	// a remote outage is absorbed by the outbox; only the cache is fatal
	if status.LocalCache {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "local cache unavailable", payload))
}
