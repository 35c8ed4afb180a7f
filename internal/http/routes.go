package http

import (
	"context"

	"gamebot/internal/http/handlers"
	"gamebot/internal/http/middleware"
	"gamebot/internal/ratelimit"
	"gamebot/internal/service"
	"gamebot/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps collects everything the HTTP surface may use. Any field may be nil;
// the matching routes are then left out or report the dependency as disabled.
type Deps struct {
	DB    *pgxpool.Pool
	Redis *redis.Client

	History    handlers.History
	Tokens     *service.TokenService
	Hub        *ws.Hub
	APILimiter *ratelimit.Limiter

	BotToken      string
	AllowedOrigin string
	Version       string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	healthHandler := handlers.NewHealthHandler(d.Version, map[string]handlers.Pinger{
		"database": dbPinger(d.DB),
		"redis":    redisPinger(d.Redis),
	})

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// без секрета нет ни токенов, ни websocket, ни /api
	if d.Tokens == nil {
		return
	}

	if d.Hub != nil {
		r.GET("/ws", ws.HandleWS(d.Hub, d.Tokens, d.AllowedOrigin))
	}

	h := handlers.NewHandler(d.History, d.Tokens, d.BotToken)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(d.APILimiter))
	registerAPIRoutes(v1, h, d.Tokens)
}

func registerAPIRoutes(api *gin.RouterGroup, h *handlers.Handler, tokens middleware.TokenParser) {
	// Auth
	api.POST("/auth", h.Auth)

	// User profile
	me := api.Group("/me")
	me.Use(middleware.JWT(tokens))
	{
		me.GET("", h.Me)
		me.GET("/games", h.MyGames)
		me.GET("/stats", h.MyStats)
	}
}

// nil pool must become a nil interface, otherwise the health check would
// call Ping on it
func dbPinger(pool *pgxpool.Pool) handlers.Pinger {
	if pool == nil {
		return nil
	}
	return pool
}

func redisPinger(client *redis.Client) handlers.Pinger {
	if client == nil {
		return nil
	}
	return handlers.PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
}
