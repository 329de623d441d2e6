package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
)

func main() {
	v := newViper()
	cfg, fileFound, err := loadConfig(v)
	if err != nil {
		fmt.Fprintln(os.Stderr, "showline:", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if fileFound {
		watchLogLevel(v, logger)
	}

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}

// openRepository picks the backend from the database url scheme.
func openRepository(dbUrl string) (Repository, error) {
	scheme, path, ok := strings.Cut(dbUrl, "://")
	if !ok {
		return nil, fmt.Errorf("database url %q has no scheme", dbUrl)
	}

	switch scheme {
	case "sqlite":
		r, err := NewSQLiteRepository(path)
		if err != nil {
			return nil, err
		}
		return r, nil
	case "postgres", "postgresql":
		r, err := NewPostgresRepository(dbUrl)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, fmt.Errorf("unsupported database scheme %q", scheme)
}

func run(ctx context.Context, cfg *Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := openRepository(cfg.Database.URL)
	if err != nil {
		return err
	}
	logger.Info().Msg("database connected")

	service := NewService(repo, repo, logger)
	defer service.close()

	feeds := NewFeeds(cfg.Broadcast.Capacity)
	show := NewShow(repo, repo, feeds, logger)

	router := NewHTTPRouter(service, show, feeds, cfg, logger)

	srvErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Msg("listening for requests")
		if err := router.Start(cfg.Server.Addr); !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	select {
	case err := <-srvErr:
		feeds.Close()
		return fmt.Errorf("server start: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	// ends every open stream session so Shutdown does not wait on them
	feeds.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	return router.Shutdown(shutdownCtx)
}
