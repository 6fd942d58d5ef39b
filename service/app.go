package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"reddish/app/auth"
	"reddish/app/cache"
	"reddish/app/config"
	"reddish/app/logger"
	"reddish/app/moderation"
	"reddish/app/repositories"
	"reddish/app/routes"
	"reddish/app/storage"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return RunAppServer(ctx, c.cfg)
		},
	}
}

// RunAppServer serves the application until ctx is cancelled, then drains
// in-flight requests.
func RunAppServer(ctx context.Context, cfg *config.Config) error {
	if err := cfg.RequireSessionSecret(); err != nil {
		return err
	}

	store, err := repositories.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Log.Error("failed to close database", zap.Error(err))
		}
	}()

	opts, cleanup, err := integrations(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	app, err := routes.SetupRoutes(store, auth.NewVerifier(cfg.SessionSecret, cfg.SessionCookie), opts)
	if err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	srv := routes.NewServer(cfg.Addr, app.Router)
	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Starting reddish", zap.String("addr", cfg.Addr), zap.String("db", cfg.DBPath))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// integrations builds the optional S3, Redis and moderation wiring. Redis is
// best effort: an unreachable server only disables the vote cache.
func integrations(ctx context.Context, cfg *config.Config) (routes.Options, func(), error) {
	opts := routes.Options{MaxImageBytes: cfg.MaxImageBytes}
	cleanup := func() {}

	if cfg.S3Enabled() {
		uploader, err := storage.NewS3Uploader(ctx, cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL, cfg.MaxImageBytes)
		if err != nil {
			return opts, cleanup, fmt.Errorf("failed to configure image storage: %w", err)
		}
		opts.Images = uploader
	} else {
		logger.Log.Warn("AWS_BUCKET not set; image attachments will be dropped")
	}

	if cfg.RedisEnabled() {
		rc, err := cache.NewRedisClient(ctx, cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
		if err != nil {
			logger.Log.Warn("Redis unavailable; vote summaries are not cached", zap.Error(err))
		} else {
			opts.VoteCache = cache.NewVoteCache(rc, cfg.VoteCacheTTL)
			cleanup = func() { _ = rc.Close() }
		}
	}

	if cfg.ModerationEnabled() {
		opts.Moderation = &routes.ModerationOptions{
			Client:   moderation.NewClient(cfg.ModerationAPIURL, cfg.ModerationAPIKey, cfg.ModerationTimeout),
			Model:    cfg.ModerationModel,
			MaxSteps: cfg.ModerationMaxSteps,
			Timeout:  cfg.ModerationTimeout,
		}
		logger.Log.Info("Post moderation enabled", zap.String("model", cfg.ModerationModel))
	}
	return opts, cleanup, nil
}
