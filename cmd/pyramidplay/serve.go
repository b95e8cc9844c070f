package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/edumarques81/pyramidplay/internal/config"
	"github.com/edumarques81/pyramidplay/internal/logging"
	"github.com/edumarques81/pyramidplay/internal/transport/socketio"
	"github.com/edumarques81/pyramidplay/internal/version"
)

func newServeCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the player and serve Socket.io clients",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, f.static)
		},
	}
	cmd.Flags().StringVar(&f.port, "port", "", "HTTP server port")
	cmd.Flags().StringVar(&f.static, "static", "", "Directory to serve static files from (optional)")
	return cmd
}

// setupLogging installs the global logger for cfg.
func setupLogging(cfg *config.Config) (func(), error) {
	closer, err := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	return func() { closer.Close() }, nil
}

func printBanner(cfg *config.Config) {
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", version.GetInfo().String())
	log.Info().Msg("  Shared-state music player")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Str("port", cfg.Port).
		Str("output", string(cfg.Output)).
		Str("data_dir", cfg.DataDir).
		Str("catalog", cfg.Catalog).
		Int("free_plays", cfg.FreePlays).
		Bool("redis", cfg.RedisAddr != "").
		Msg("Configuration")
}

func serve(parent context.Context, cfg *config.Config, staticDir string) error {
	closeLogs, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLogs()
	printBanner(cfg)

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	socketServer, err := socketio.NewServer(a.player, a.library, socketio.Options{
		MaxRemoteClients: cfg.MaxRemoteClients,
		Catalog:          a.catalog,
	})
	if err != nil {
		return err
	}
	defer socketServer.Close()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newRouter(a, socketServer, staticDir),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info().Msg("Server stopped")
	return nil
}
