package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/kanban/api/handler"
)

type Handlers struct {
	Board  *apiHandler.BoardHandler
	Game   *apiHandler.GameHandler
	Sync   *apiHandler.SyncHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	api := r.Group("/api/v1")

	// Boards; static segments are registered before {id}
	api.GET("/boards", authMiddleware(handlers.Board.List))
	api.PUT("/boards/active", authMiddleware(handlers.Board.SetActive))
	api.POST("/boards/actions", authMiddleware(handlers.Board.Dispatch))
	api.GET("/boards/{id}", authMiddleware(handlers.Board.Get))
	api.GET("/boards/{id}/cards", authMiddleware(handlers.Board.Cards))
	api.GET("/boards/{id}/timeline", authMiddleware(handlers.Board.Timeline))
	api.GET("/boards/{id}/calendar", authMiddleware(handlers.Board.Calendar))
	api.GET("/stats", authMiddleware(handlers.Board.Stats))

	// Gamification
	api.GET("/game", authMiddleware(handlers.Game.Get))
	api.POST("/game/actions", authMiddleware(handlers.Game.Dispatch))

	// Write-back
	api.GET("/sync", authMiddleware(handlers.Sync.Status))
	api.POST("/sync/flush", authMiddleware(handlers.Sync.Flush))

	return r
}
