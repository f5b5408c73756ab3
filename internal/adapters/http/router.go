package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/reelmates/watchparty/internal/adapters/ws"
	"github.com/reelmates/watchparty/internal/app"
	"github.com/reelmates/watchparty/internal/config"
	"github.com/reelmates/watchparty/internal/core"
	"github.com/rs/zerolog/log"
)

// AuthMiddleware resolves the bearer token for the REST surface and stores
// the user id in the request context. Rejects with 401 on failure.
func AuthMiddleware(verifier core.Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, err := verifier.Verify(c.Request.Context(), bearerToken(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("user_id", string(uid))
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, gw *app.SessionGateway) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	log.Info().Str("module", "adapters.http").Msg("router setup")

	api := r.Group("/api")

	wsCtl := ws.NewPartyWSController(gw, cfg.ReadLimit, cfg.PingPeriod)
	api.GET("/ws", func(c *gin.Context) {
		wsCtl.HandleSession(ctx, c)
	})

	h := &PartyHandler{Directory: gw.Directory, Log: gw.Log}

	api.GET("/tags", h.ListAllowedTags)

	parties := api.Group("/parties", AuthMiddleware(gw.Verifier))
	parties.GET("", h.ListParties)
	parties.POST("", h.CreateParty)
	parties.GET("/:id", h.GetParty)
	parties.POST("/:id/join", h.JoinParty)
	parties.POST("/:id/leave", h.LeaveParty)
	parties.GET("/:id/messages", h.ListMessages)
	parties.GET("/:id/tags", h.GetTags)
	parties.POST("/:id/tags", h.AddTags)
	parties.DELETE("/:id/tags", h.RemoveTags)

	return r
}
