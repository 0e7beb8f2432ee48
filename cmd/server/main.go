package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/soundmingle/jam/internal/adapters/http"
	wssignal "github.com/soundmingle/jam/internal/adapters/signal"
	"github.com/soundmingle/jam/internal/adapters/spotify"
	"github.com/soundmingle/jam/internal/app"
	"github.com/soundmingle/jam/internal/config"
	"github.com/soundmingle/jam/internal/core"
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
		log.Error().Err(err).Msg("failed to load config")
	}

	store := core.NewStore(cfg.WorldSize)
	registry := app.NewRegistry()
	dispatcher := app.NewDispatcher(store, registry)
	eventRouter := app.NewRouter(store, registry, dispatcher, cfg.EventBuffer)
	go eventRouter.Run(ctx)

	ctl := wssignal.NewController(eventRouter, registry, cfg)
	sp := spotify.NewClient(cfg.Spotify)

	r := router.SetupRouter(ctx, cfg, ctl, sp)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("jam server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
