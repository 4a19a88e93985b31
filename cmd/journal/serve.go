package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/trogers1052/trade-journal/internal/api"
	"github.com/trogers1052/trade-journal/internal/auth"
	"github.com/trogers1052/trade-journal/internal/commentary"
	"github.com/trogers1052/trade-journal/internal/config"
	"github.com/trogers1052/trade-journal/internal/database"
	"github.com/trogers1052/trade-journal/internal/kafka"
	"github.com/trogers1052/trade-journal/internal/ledger"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var skipMigrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load()
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := cfg.Validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply pending migrations on startup")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger, migrateOnStart bool) error {
	connStr := cfg.Database.ConnectionString()

	if migrateOnStart {
		if err := database.Migrate(connStr); err != nil {
			return err
		}
		log.Info("Database migrations applied")
	}

	db, err := database.New(connStr)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("name", cfg.Database.DBName))

	var cache commentary.Cache
	if cfg.Redis.Enabled() {
		rc, err := commentary.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("Redis unavailable, commentary cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			defer rc.Close()
			cache = rc
			log.Info("Commentary cache enabled", zap.String("addr", cfg.Redis.Addr), zap.Duration("ttl", cfg.Redis.TTL))
		}
	}

	var events api.EventPublisher
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		events = producer
		log.Info("Publishing journal events", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	gemini := commentary.NewClient(cfg.Gemini, cache, cfg.Redis.TTL, log)
	authSvc := auth.NewService(db, auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), log)

	handler := api.NewHandler(db, authSvc, ledger.NewService(db), commentary.NewAdvisor(gemini), events, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.SetupRoutes(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.Gemini.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
