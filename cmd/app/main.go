package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamebot/internal/bot"
	"gamebot/internal/config"
	"gamebot/internal/db"
	"gamebot/internal/game"
	httpServer "gamebot/internal/http"
	"gamebot/internal/lexicon"
	"gamebot/internal/logger"
	"gamebot/internal/ratelimit"
	"gamebot/internal/repository"
	"gamebot/internal/service"
	"gamebot/internal/session"
	"gamebot/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	lex, err := lexicon.Load(lexicon.Files(cfg.Words))
	if err != nil {
		logger.Fatal("failed to load word lists", "error", err)
	}
	factory := game.NewFactory(lex, game.NewSource(time.Now().UnixNano()))

	// история игр опциональна
	var (
		dbPool  *pgxpool.Pool
		history *service.HistoryService
	)
	if cfg.DatabaseURL != "" {
		dbPool = db.Connect(cfg.DatabaseURL)
		defer dbPool.Close()
		history = service.NewHistoryService(repository.NewGameHistoryRepository(dbPool))
	} else {
		logger.Warn("DATABASE_URL not set, game history disabled")
	}

	rdb := ratelimit.Connect(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if rdb != nil {
		defer rdb.Close()
	}

	opts := []session.Option{}
	if cfg.EventRateLimit > 0 {
		opts = append(opts, session.WithLimiter(ratelimit.New(rdb, cfg.EventRateLimit, cfg.EventRateWindow, "events")))
	}
	if history != nil {
		opts = append(opts, session.WithRecorder(history))
	}

	var dispatchers []*session.Dispatcher

	var gameBot *bot.GameBot
	if cfg.BotEnabled() {
		api, err := bot.Connect(cfg.BotToken)
		if err != nil {
			logger.Fatal("failed to connect to telegram", "error", err)
		}
		d := session.NewDispatcher(factory, bot.NewSender(api), append(opts, session.WithName("bot"))...)
		dispatchers = append(dispatchers, d)

		var stats bot.StatsProvider
		if history != nil {
			stats = history
		}
		gameBot = bot.New(api, d, stats)
		go gameBot.Start()
	}

	deps := httpServer.Deps{
		DB:            dbPool,
		Redis:         rdb,
		BotToken:      cfg.BotToken,
		AllowedOrigin: cfg.AllowedOrigin,
		Version:       version,
	}
	if cfg.APIRateLimit > 0 {
		deps.APILimiter = ratelimit.New(rdb, cfg.APIRateLimit, cfg.APIRateWindow, "api")
	}
	if history != nil {
		deps.History = history
	}

	var hub *ws.Hub
	if cfg.WebEnabled() {
		tokens, err := service.NewTokenService(cfg.JWTSecret, service.DefaultTokenTTL)
		if err != nil {
			logger.Fatal("failed to init tokens", "error", err)
		}
		hub = ws.NewHub()
		d := session.NewDispatcher(factory, hub, append(opts, session.WithName("ws"))...)
		hub.SetEvents(d)
		dispatchers = append(dispatchers, d)

		deps.Tokens = tokens
		deps.Hub = hub
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors(cfg.AllowedOrigin))
	httpServer.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "bot", cfg.BotEnabled(), "web", cfg.WebEnabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if gameBot != nil {
		gameBot.Stop()
	}
	for _, d := range dispatchers {
		d.Close()
	}
	if hub != nil {
		hub.CloseAll()
	}

	logger.Info("server exited")
}

// CORS for a frontend served from a different domain
func cors(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" && (allowedOrigin == "" || origin == allowedOrigin) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
