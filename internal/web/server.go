// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

// Package web provides the HTML surface: registration, login, and the
// account pages behind the session gate.
package web

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/samber/oops"

	"github.com/gatehouse/gatehouse/internal/auth"
	"github.com/gatehouse/gatehouse/internal/captcha"
	"github.com/gatehouse/gatehouse/internal/observability"
)

// Options configures the web server. Metrics may be nil; the handlers
// then skip counter updates.
type Options struct {
	Auth       *auth.Service
	Captcha    *captcha.Service
	Metrics    *observability.Metrics
	CookieName string
	SessionTTL time.Duration
	Logger     *slog.Logger
}

// Server serves the registration and account pages.
type Server struct {
	auth       *auth.Service
	captcha    *captcha.Service
	metrics    *observability.Metrics
	cookieName string
	sessionTTL time.Duration
	logger     *slog.Logger
	handler    http.Handler
}

// NewServer wires the routes and returns a ready-to-serve Server.
// Returns an error if a required dependency is missing.
func NewServer(opts Options) (*Server, error) {
	if opts.Auth == nil {
		return nil, oops.Errorf("auth service is required")
	}
	if opts.Captcha == nil {
		return nil, oops.Errorf("captcha service is required")
	}
	if opts.CookieName == "" {
		opts.CookieName = "session_id"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = auth.DefaultSessionTTL
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		auth:       opts.Auth,
		captcha:    opts.Captcha,
		metrics:    opts.Metrics,
		cookieName: opts.CookieName,
		sessionTTL: opts.SessionTTL,
		logger:     opts.Logger,
	}

	router := httprouter.New()
	router.PanicHandler = s.handlePanic

	router.GET("/", s.requireUser(s.handleHome))
	router.GET("/register", s.handleRegisterForm)
	router.POST("/register", s.handleRegisterSubmit)
	router.GET("/login", s.handleLoginForm)
	router.POST("/login", s.handleLoginSubmit)
	router.GET("/account", s.requireUser(s.handleAccountForm))
	router.POST("/account", s.requireUser(s.handleAccountSubmit))
	router.GET("/profile", s.requireUser(s.handleProfile))
	router.GET("/logout", s.handleLogout)

	staticFS, err := fs.Sub(assetsFS, "static")
	if err != nil {
		return nil, oops.With("operation", "mount static assets").Wrap(err)
	}
	router.ServeFiles("/static/*filepath", http.FS(staticFS))

	s.handler = router
	return s, nil
}

// Handler returns the root http.Handler, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve listens on bind and serves until ctx is cancelled, then shuts
// down gracefully. It returns the first serve error, or nil on a clean
// shutdown.
func (s *Server) Serve(ctx context.Context, bind string) error {
	server := &http.Server{
		Addr:              bind,
		Handler:           s.handler,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       5 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web server starting", "addr", bind)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return oops.With("addr", bind).Wrap(err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("web server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return oops.With("operation", "shutdown web server").Wrap(err)
	}
	return nil
}

// handlePanic confines a handler panic to its request.
func (s *Server) handlePanic(w http.ResponseWriter, r *http.Request, v any) {
	s.logger.Error("handler panic", "path", r.URL.Path, "panic", v)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
