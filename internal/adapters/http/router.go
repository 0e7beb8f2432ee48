package http

import (
	"context"
	"os"
	"path/filepath"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/soundmingle/jam/internal/adapters/signal"
	"github.com/soundmingle/jam/internal/adapters/spotify"
	"github.com/soundmingle/jam/internal/config"
)

// ClientTokenMiddleware tags every browser with a stable token cookie. The
// token identifies a browser across page loads; participant ids stay
// per-connection and are allocated by the registry at upgrade time.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, ctl *signal.Controller, sp *spotify.Client) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("JamSessions", store))
	r.Use(ClientTokenMiddleware())

	index := filepath.Join(cfg.StaticPath, "index.html")
	if _, err := os.Stat(index); err != nil {
		log.Warn().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("frontend build not found, serving API only")
	} else {
		r.Static("/static", cfg.StaticPath)
		r.GET("/", func(c *gin.Context) {
			c.File(index)
		})
	}

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		ctl.HandleSession(ctx, c)
	})

	api.GET("/spotify/login", sp.Login)
	api.GET("/spotify/callback", sp.Callback)
	api.GET("/spotify/role-hint", sp.RoleHint)

	return r
}
