// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/captcha"
	"github.com/gatehouse/gatehouse/internal/logging"
	"github.com/gatehouse/gatehouse/internal/observability"
	"github.com/gatehouse/gatehouse/internal/store"
	"github.com/gatehouse/gatehouse/internal/web"
	"github.com/gatehouse/gatehouse/pkg/errutil"
)

// challengeSweepInterval controls how often expired pending challenges
// are purged from memory.
const challengeSweepInterval = time.Minute

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the registration and login server",
		Long: `Start the web server that handles registration, login, and
account management, plus the observability endpoints.`,
		RunE: runServe,
	}
	registerConfigFlags(cmd.Flags())
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logging.SetDefault("gatehouse", version, cfg.LogFormat)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		errutil.LogError(logger, "database connection failed", err)
		return err
	}
	defer pool.Close()

	sessionRepo := authpg.NewSessionRepository(pool)
	authService, err := auth.NewServiceWithLogger(
		authpg.NewUserRepository(pool),
		sessionRepo,
		auth.NewPBKDF2Hasher(),
		logger,
	)
	if err != nil {
		return err
	}

	challengeStore := captcha.NewMemoryStore()
	captchaService, err := captcha.NewService(challengeStore, captcha.NewImageRenderer(), cfg.CaptchaTTL)
	if err != nil {
		return err
	}

	obsServer := observability.NewServer(cfg.MetricsAddr, func() bool {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil
	})

	obsErrCh, err := obsServer.Start()
	if err != nil {
		errutil.LogError(logger, "observability server failed to start", err)
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if stopErr := obsServer.Stop(stopCtx); stopErr != nil {
			errutil.LogError(logger, "observability server stop failed", stopErr)
		}
	}()

	webServer, err := web.NewServer(web.Options{
		Auth:       authService,
		Captcha:    captchaService,
		Metrics:    obsServer.Metrics(),
		CookieName: cfg.CookieName,
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	go sweepLoop(ctx, logger, sessionRepo, challengeStore)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- webServer.Serve(ctx, cfg.HTTPAddr)
	}()

	select {
	case err := <-serveErrCh:
		if err != nil {
			errutil.LogError(logger, "web server failed", err)
			return err
		}
	case obsErr, ok := <-obsErrCh:
		if ok && obsErr != nil {
			errutil.LogError(logger, "observability server failed", obsErr)
			stop()
			<-serveErrCh
			return oops.Wrap(obsErr)
		}
		// Channel closed on graceful stop; wait for the web server.
		if err := <-serveErrCh; err != nil {
			errutil.LogError(logger, "web server failed", err)
			return err
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// sweepLoop periodically removes expired sessions from the database and
// expired challenges from memory.
func sweepLoop(ctx context.Context, logger *slog.Logger, sessions auth.SessionRepository, challenges *captcha.MemoryStore) {
	ticker := time.NewTicker(challengeSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := challenges.Sweep(time.Now()); removed > 0 {
				logger.Debug("expired challenges swept", "removed", removed)
			}
			removed, err := sessions.DeleteExpired(ctx)
			if err != nil {
				errutil.LogError(logger, "expired session sweep failed", err)
				continue
			}
			if removed > 0 {
				logger.Debug("expired sessions swept", "removed", removed)
			}
		}
	}
}
