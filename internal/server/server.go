// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/unigo/internal/config"
	"codeberg.org/oliverandrich/unigo/internal/database"
	"codeberg.org/oliverandrich/unigo/internal/handlers"
	"codeberg.org/oliverandrich/unigo/internal/i18n"
	"codeberg.org/oliverandrich/unigo/internal/middleware"
	"codeberg.org/oliverandrich/unigo/internal/repository"
	"codeberg.org/oliverandrich/unigo/internal/services/auth"
	"codeberg.org/oliverandrich/unigo/internal/services/avatar"
	"codeberg.org/oliverandrich/unigo/internal/services/email"
	"codeberg.org/oliverandrich/unigo/internal/services/ledger"
	"codeberg.org/oliverandrich/unigo/internal/services/profile"
	"codeberg.org/oliverandrich/unigo/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 10 * time.Second

// avatarPath is the upload route below the API prefix. The global body limit
// skips it in favour of avatarBodyLimit.
const avatarPath = "/me/avatar"

// multipartOverheadMB is added to the avatar size limit for the multipart
// envelope around the image.
const multipartOverheadMB = 1

// Services bundles everything the HTTP layer calls into.
type Services struct {
	Repo     *repository.Repository
	Auth     *auth.Service
	Profiles *profile.Service
	Avatars  *avatar.Storage
	Mail     handlers.CodeDispatcher
}

// NewServices wires the services for cfg on top of repo. mail delivers
// verification codes.
func NewServices(cfg *config.Config, repo *repository.Repository, mail handlers.CodeDispatcher) (*Services, error) {
	opts := []token.Option{}
	if cfg.Auth.TokenIssuer != "" {
		opts = append(opts, token.WithIssuer(cfg.Auth.TokenIssuer))
	}
	tokens, err := token.NewIssuer(cfg.Auth.SecretKey, cfg.Auth.AccessTokenTTL, opts...)
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}

	codes := ledger.New(repo, cfg.Auth.EmailCodeTTL)
	avatars := avatar.NewStorage(cfg.Avatar.Dir, cfg.Avatar.PublicPrefix)

	return &Services{
		Repo:     repo,
		Auth:     auth.NewService(repo, codes, tokens, &cfg.Auth),
		Profiles: profile.NewService(repo, avatars, int64(cfg.Avatar.MaxSize)<<20),
		Avatars:  avatars,
		Mail:     mail,
	}, nil
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Auth.SecretKey == config.DefaultSecretKey {
		slog.Warn("using the default secret key, set SECRET_KEY in production")
	}

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"api_prefix", cfg.Server.APIPrefix,
		"mail_driver", cfg.Mail.Driver,
	)

	// i18n
	if err := i18n.Init(cfg.Server.DefaultLocale); err != nil {
		return fmt.Errorf("failed to init i18n: %w", err)
	}

	// Database, migrations run on open
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// Mail
	sender, err := email.NewSender(&cfg.Mail, cfg.Auth.EmailCodeTTL)
	if err != nil {
		return fmt.Errorf("failed to set up mail: %w", err)
	}
	dispatcher := email.NewDispatcher(sender, email.DefaultSendTimeout)

	svc, err := NewServices(cfg, repository.New(db), dispatcher)
	if err != nil {
		return err
	}

	e := NewEcho(cfg, svc)
	runErr := startWithGracefulShutdown(ctx, e, cfg)

	drainCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := dispatcher.Wait(drainCtx); err != nil {
		slog.Warn("pending verification mails dropped", "error", err)
	}

	return runErr
}

// NewEcho builds the echo instance with middleware and routes.
func NewEcho(cfg *config.Config, svc *Services) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handlers.HTTPErrorHandler

	setupMiddleware(e, cfg)
	setupRoutes(e, cfg, svc)
	return e
}

func setupRoutes(e *echo.Echo, cfg *config.Config, svc *Services) {
	h := handlers.New(svc.Repo)
	authH := handlers.NewAuth(svc.Auth, svc.Mail)
	profileH := handlers.NewProfile(svc.Profiles)
	requireAuth := middleware.RequireAuth(svc.Auth)

	// Uploaded avatars
	if prefix := svc.Avatars.PublicPrefix(); prefix != "" {
		e.Static(prefix, svc.Avatars.Dir())
	}

	api := e.Group(cfg.Server.APIPrefix)
	api.GET("/health", h.Health)

	a := api.Group("/auth")
	a.POST("/register", authH.Register)
	a.POST("/verify", authH.Verify)
	a.POST("/login", authH.Login)
	a.GET("/me", authH.Me, requireAuth)

	me := api.Group("/me", requireAuth)
	me.GET("/profile", profileH.Get)
	me.PUT("/profile", profileH.Update)
	me.POST("/avatar", profileH.UploadAvatar, avatarBodyLimit(cfg)...)
}

func startWithGracefulShutdown(ctx context.Context, e *echo.Echo, cfg *config.Config) error {
	e.Server.ReadHeaderTimeout = 10 * time.Second
	e.Server.ReadTimeout = 30 * time.Second
	e.Server.WriteTimeout = 30 * time.Second

	// Channel for server errors
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal, cancellation or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case <-ctx.Done():
		slog.Info("shutting down server", "reason", ctx.Err())
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
