package devserver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"toolroom/internal/core/config"
	"toolroom/internal/core/routes"
	"toolroom/internal/database"
	"toolroom/internal/devserver/handlers"
	"toolroom/internal/devserver/store"
	"toolroom/internal/middleware"
	"toolroom/internal/repository"
	"toolroom/pkg/models"
	"toolroom/pkg/roles"
	"toolroom/pkg/security"
)

// Version is reported by /health.
var Version = "dev"

const (
	requestTimeout  = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

type Server struct {
	cfg      config.Server
	store    store.Store
	sessions *security.Sessions
	auth     *handlers.AuthHandler
	engine   *gin.Engine
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*Server)

// WithClock replaces time.Now for sessions and workflow timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func New(cfg config.Server, st store.Store, log *zap.Logger, opts ...Option) *Server {
	s := &Server{cfg: cfg, store: st, now: time.Now, log: log}
	for _, opt := range opts {
		opt(s)
	}

	s.sessions = security.NewSessions(st, cfg.JWTSecret, cfg.SessionDuration, s.now)
	notifier := handlers.NewNotifier(st, log)
	s.auth = handlers.NewAuthHandler(st, s.sessions, cfg.LoginRateLimit, cfg.LoginRateWindow, log)

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(log), middleware.RequestLogger(log), middleware.TimeoutMiddleware(requestTimeout))
	routes.Register(router, routes.Handlers{
		Auth:         s.auth,
		User:         handlers.NewUserHandler(st, cfg.DefaultPassword, log),
		Tool:         handlers.NewToolHandler(st),
		ToolRequest:  handlers.NewToolRequestHandler(st, notifier, s.now, log),
		ToolAddition: handlers.NewToolAdditionHandler(st, notifier, s.now, log),
		Issue:        handlers.NewIssueHandler(st, notifier, s.now, log),
		Notification: handlers.NewNotificationHandler(st),
		Audit:        handlers.NewAuditHandler(st, s.now),
	}, s.sessions, middleware.NewHealth(st, Version))
	s.engine = router

	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Bootstrap creates the configured officer account when it does not exist yet.
func (s *Server) Bootstrap(ctx context.Context) error {
	username := s.cfg.BootstrapOfficerUsername
	if username == "" {
		return nil
	}

	_, err := s.store.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("look up bootstrap officer: %w", err)
	}

	hash, err := security.HashPassword(s.cfg.BootstrapOfficerPassword)
	if err != nil {
		return err
	}
	officer := models.User{
		Username:     username,
		FullName:     "Tool Room Officer",
		Role:         roles.Officer,
		PasswordHash: hash,
	}
	if err := s.store.CreateUser(ctx, &officer); err != nil {
		return fmt.Errorf("create bootstrap officer: %w", err)
	}
	s.log.Info("bootstrap officer created", zap.String("username", username), zap.Int("user_id", officer.ID))
	return nil
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Bootstrap(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.auth.RateLimiter().Run(ctx)

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("backend listening", zap.String("addr", s.cfg.Listen))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down backend")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// OpenStore returns the postgres store when DATABASE_URL is set, migrating it
// first, and the in-memory store otherwise. closer releases the connection.
func OpenStore(ctx context.Context, cfg config.Server, log *zap.Logger) (st store.Store, closer func() error, err error) {
	if !cfg.UsesPostgres() {
		log.Warn("DATABASE_URL not set, using in-memory store")
		return store.NewMemory(nil), func() error { return nil }, nil
	}

	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir, false, log); err != nil {
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}
	db, err := database.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to the database")
	return store.NewPostgres(repository.NewRepository(db)), db.Close, nil
}
