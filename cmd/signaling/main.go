package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/carebridge/call-signaling/config"
	"github.com/carebridge/call-signaling/internal/auth"
	"github.com/carebridge/call-signaling/internal/call"
	"github.com/carebridge/call-signaling/internal/handlers"
	"github.com/carebridge/call-signaling/internal/middleware"
	"github.com/carebridge/call-signaling/internal/presence"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.IsProduction() {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := presence.Connect(ctx, cfg.Redis, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer store.Close()
	log.Info().Str("addr", cfg.Redis.Addr()).Msg("redis connection established")

	authn := auth.New(cfg.JWTSecret)
	coordinator := call.NewCoordinator(store, log.Logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		connections, rooms := coordinator.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"connections": connections,
			"rooms":       rooms,
		})
	})

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/auth/login", handlers.Login(authn))
		apiGroup.GET("/calls/:appointmentId", middleware.JWTAuth(authn), handlers.GetCall(store))
	}

	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/call", handlers.CallSocket(coordinator, authn, cfg, log.Logger))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("call signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
