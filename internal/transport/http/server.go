package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/minicom/internal/config"
	"github.com/vovakirdan/minicom/internal/core"
)

// NewServer builds an HTTP server with the WebSocket and REST routes.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers all routes on a gin engine.
func NewRouter(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	ws := NewWSHandler(hub, cfg, logger)
	router.GET("/ws", ws.Handle)
	router.GET("/ws/:room", ws.Handle)
	router.GET("/ws/chat/:room", ws.Handle)

	rooms := NewRoomHandlers(hub, cfg.HistoryLimit, logger)
	api := router.Group("/api")
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/rooms/:room/messages", rooms.ListMessages)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
