package http

import (
	"context"
	"net/http"

	"github.com/draftroom/pulse/internal/adapters/ws"
	"github.com/draftroom/pulse/internal/app"
	"github.com/draftroom/pulse/internal/auth"
	"github.com/draftroom/pulse/internal/config"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupRouter(ctx context.Context, cfg *config.Config, gate *auth.Gate, ctrl *ws.Controller, hub *app.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, hub.Stats())
	})

	api.GET("/ws", AuthMiddleware(gate), func(c *gin.Context) {
		ctrl.HandleWS(ctx, c)
	})

	return r
}
