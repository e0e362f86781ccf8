package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-auth-service/internal/auth"
	"github.com/redmonkez12/go-auth-service/internal/config"
	"github.com/redmonkez12/go-auth-service/internal/database"
	httpServer "github.com/redmonkez12/go-auth-service/internal/http"
	"github.com/redmonkez12/go-auth-service/internal/logging"
	"github.com/redmonkez12/go-auth-service/internal/metrics"
	"github.com/redmonkez12/go-auth-service/internal/user"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.Options{Flags: cmd.Flags()})
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"token_format", cfg.Auth.TokenFormat,
		"password_hasher", cfg.Auth.PasswordHasher,
	)
	if !cfg.Server.IsDevelopment() && cfg.Auth.UsesDefaultSecret() {
		logger.Warn("JWT_SECRET_KEY is the insecure default, set a unique secret in production")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		logger.Info("applying database migrations")
		if err := database.Migrate(ctx, db.DB); err != nil {
			return err
		}
	}

	router, err := newHandler(cfg, user.NewRepository(db), logger)
	if err != nil {
		return err
	}

	server := httpServer.NewServer(
		":"+cfg.Server.Port,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// newHandler wires the auth stack on top of users
func newHandler(cfg *config.Config, users user.TxStore, logger *logging.Logger) (http.Handler, error) {
	tokens, err := auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	authService := auth.NewService(
		users,
		auth.NewPasswordHasher(cfg.Auth),
		tokens,
		logger,
		cfg.Auth.TokenDuration,
		cfg.Auth.PasswordMinLength,
	)

	m := metrics.New()
	authHandler := auth.NewHandler(authService, m)
	authMiddleware := auth.NewMiddleware(tokens)

	return httpServer.NewRouter(cfg, authHandler, authMiddleware, m, logger), nil
}
