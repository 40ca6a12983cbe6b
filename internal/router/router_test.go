package router

import (
	"context"
	"net/http"
	"testing"

	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/kanban/api/handler"
	"github.com/fastygo/kanban/internal/infrastructure/monitor"
	"github.com/fastygo/kanban/usecase"
)

type okStatus struct{}

func (okStatus) GetStatus() monitor.Status { return monitor.Status{LocalCache: true} }

type noopSyncer struct{}

func (noopSyncer) Flush(context.Context) error { return nil }
func (noopSyncer) Status() usecase.SyncStatus { return usecase.SyncStatus{Backend: "none"} }

func newTestRouter(guarded *int) fasthttp.RequestHandler {
	store := usecase.NewStore(usecase.StoreOptions{})
	dispatcher := usecase.NewDispatcher()
	handlers := Handlers{
		Board:  apiHandler.NewBoardHandler(store, dispatcher, nil, nil),
		Game:   apiHandler.NewGameHandler(store, dispatcher, nil, nil),
		Sync:   apiHandler.NewSyncHandler(noopSyncer{}, nil, nil, nil),
		Health: apiHandler.NewHealthHandler(okStatus{}, nil, nil),
	}
	auth := func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			*guarded++
			next(ctx)
		}
	}
	return New(handlers, auth).Handler
}

func TestRoutes(t *testing.T) {
	var guarded int
	h := newTestRouter(&guarded)

	cases := []struct {
		method, uri, body string
		status            int
	}{
		{"GET", "/health", "", http.StatusOK},
		{"GET", "/api/v1/boards", "", http.StatusOK},
		{"PUT", "/api/v1/boards/active", `{"id":"missing"}`, http.StatusNotFound},
		{"POST", "/api/v1/boards/actions", `{"type":"CREATE_BOARD","payload":{"name":"Sprint"}}`, http.StatusOK},
		{"GET", "/api/v1/boards/missing", "", http.StatusNotFound},
		{"GET", "/api/v1/boards/missing/cards", "", http.StatusNotFound},
		{"GET", "/api/v1/boards/missing/timeline", "", http.StatusNotFound},
		{"GET", "/api/v1/boards/missing/calendar", "", http.StatusNotFound},
		{"GET", "/api/v1/stats", "", http.StatusOK},
		{"GET", "/api/v1/game", "", http.StatusOK},
		{"POST", "/api/v1/game/actions", `{"type":"CLEAR_RECENT_POINTS","payload":{}}`, http.StatusOK},
		{"GET", "/api/v1/sync", "", http.StatusOK},
		{"POST", "/api/v1/sync/flush", "", http.StatusOK},
		{"DELETE", "/api/v1/boards", "", http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		ctx := &fasthttp.RequestCtx{}
		ctx.Request.Header.SetMethod(tc.method)
		ctx.Request.SetRequestURI(tc.uri)
		if tc.body != "" {
			ctx.Request.SetBodyString(tc.body)
		}
		h(ctx)
		if got := ctx.Response.StatusCode(); got != tc.status {
			t.Errorf("%s %s: expected %d, got %d (%s)", tc.method, tc.uri, tc.status, got, ctx.Response.Body())
		}
	}

	// every route except /health and the 405 goes through the middleware
	if want := len(cases) - 2; guarded != want {
		t.Fatalf("expected %d guarded calls, got %d", want, guarded)
	}
}
