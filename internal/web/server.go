// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

// Package web exposes the user directory and library over HTTP JSON.
package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/sheetshelf/sheetshelf/internal/access"
	"github.com/sheetshelf/sheetshelf/internal/auth"
	"github.com/sheetshelf/sheetshelf/internal/library"
	"github.com/sheetshelf/sheetshelf/internal/user"
)

// UserService is the user directory as used by the handlers.
type UserService interface {
	Register(ctx context.Context, in user.NewUser) (*user.User, string, error)
	Login(ctx context.Context, username, password string) (*user.User, string, error)
	List(ctx context.Context) ([]user.User, error)
	Get(ctx context.Context, username string) (*user.Profile, error)
	Update(ctx context.Context, username string, c user.Changes) (*user.User, error)
	Remove(ctx context.Context, username string) error
}

// LibraryService is the library manager as used by the handlers.
type LibraryService interface {
	AddToLibrary(ctx context.Context, username string, workID int64) (*library.Entry, error)
	RemoveFromLibrary(ctx context.Context, username string, workID int64) error
	UpdateEntry(ctx context.Context, username string, workID int64, patch library.EntryPatch) (*library.Entry, error)
	CreateWork(ctx context.Context, in library.NewWork) (*library.Work, error)
	GetWork(ctx context.Context, id int64) (*library.Work, error)
	DeleteWork(ctx context.Context, id int64) error
}

// TokenDecoder turns a bearer token into an identity.
type TokenDecoder interface {
	Decode(token string) (*auth.Identity, error)
}

// RequestObserver records served requests, e.g. as metrics.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Config holds HTTP server settings.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// Deps are the collaborators of a Server.
type Deps struct {
	Users     UserService
	Library   LibraryService
	Tokens    TokenDecoder
	Guard     *access.Guard
	Validator *Validator
	Observer  RequestObserver // optional
	Logger    *slog.Logger
}

// Server serves the JSON API.
type Server struct {
	cfg        Config
	users      UserService
	library    LibraryService
	tokens     TokenDecoder
	guard      *access.Guard
	validator  *Validator
	observer   RequestObserver
	logger     *slog.Logger
	handler    http.Handler
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates a Server.
func NewServer(cfg Config, d Deps) (*Server, error) {
	switch {
	case d.Users == nil:
		return nil, oops.Errorf("user service is required")
	case d.Library == nil:
		return nil, oops.Errorf("library service is required")
	case d.Tokens == nil:
		return nil, oops.Errorf("token decoder is required")
	case d.Guard == nil:
		return nil, oops.Errorf("access guard is required")
	}
	if d.Validator == nil {
		v, err := NewValidator()
		if err != nil {
			return nil, err
		}
		d.Validator = v
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	s := &Server{
		cfg:       cfg,
		users:     d.Users,
		library:   d.Library,
		tokens:    d.Tokens,
		guard:     d.Guard,
		validator: d.Validator,
		observer:  d.Observer,
		logger:    d.Logger,
	}
	s.handler = s.instrument(s.routes())
	return s, nil
}

// Handler returns the fully wrapped API handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.Handle("GET /auth/me", s.authenticated(s.handleMe))

	mux.Handle("POST /users", s.authenticated(s.handleCreateUser))
	mux.Handle("GET /users", s.authenticated(s.handleListUsers))
	mux.Handle("GET /users/{username}", s.authenticated(s.handleGetUser))
	mux.Handle("PATCH /users/{username}", s.authenticated(s.handleUpdateUser))
	mux.Handle("DELETE /users/{username}", s.authenticated(s.handleDeleteUser))

	mux.Handle("POST /users/{username}/userLib/{workId}", s.authenticated(s.handleAddToLibrary))
	mux.Handle("PATCH /users/{username}/userLib/{workId}", s.authenticated(s.handleUpdateEntry))
	mux.Handle("DELETE /users/{username}/userLib/{workId}", s.authenticated(s.handleRemoveFromLibrary))

	mux.Handle("POST /works", s.authenticated(s.handleCreateWork))
	mux.Handle("GET /works/{id}", s.authenticated(s.handleGetWork))
	mux.Handle("DELETE /works/{id}", s.authenticated(s.handleDeleteWork))

	return mux
}

// Start begins serving the API.
// It returns an error channel that will receive any errors from the HTTP server
// after it starts. The channel is closed when the server stops gracefully.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.Code("WEB_LISTEN_FAILED").With("addr", s.cfg.Addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			s.logger.Error("web server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	s.logger.Info("web server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts down the server, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_web_server").Wrap(err)
		}
	}
	s.logger.Info("web server stopped")
	return nil
}

// Addr returns the address the server is listening on.
// Returns empty string if not running.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
