package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/draftroom/pulse/internal/adapters/http"
	"github.com/draftroom/pulse/internal/adapters/ws"
	"github.com/draftroom/pulse/internal/app"
	"github.com/draftroom/pulse/internal/auth"
	"github.com/draftroom/pulse/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	if cfg.TokenSecret == "" {
		log.Fatal().Msg("token_secret is required")
	}

	verifier := auth.NewHS256Verifier(cfg.TokenSecret, cfg.TokenIssuer)
	var store auth.IdentityStore
	if cfg.IdentityURL != "" {
		store = auth.NewHTTPIdentityStore(cfg.IdentityURL, cfg.IdentityTimeout)
	} else {
		log.Warn().Msg("identity_url not set, every connection will be refused")
		store = auth.NewStaticIdentityStore()
	}
	gate := auth.NewGate(verifier, store)

	hub := &app.Hub{
		Registry: app.NewRegistry(),
		Channels: app.NewChannelManager(),
		Editors:  app.NewEditSessions(),
		Policy:   app.SimplePolicy{},
	}
	ctrl := ws.NewController(cfg, hub)

	r := router.SetupRouter(ctx, cfg, gate, ctrl, hub)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("pulse server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	hub.Shutdown()
	log.Info().Msg("Server exited gracefully")
}
