package container

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"toolroom/internal/audit"
	"toolroom/internal/auth"
	"toolroom/internal/core/config"
	"toolroom/internal/gateway"
	"toolroom/internal/inventory/additions"
	"toolroom/internal/inventory/requests"
	"toolroom/internal/inventory/tools"
	"toolroom/internal/issues"
	"toolroom/internal/notifications"
	"toolroom/internal/session"
	"toolroom/internal/users"
	"toolroom/internal/workflow"
)

// Container holds everything one CLI invocation needs. The session store is
// the only mutable shared state and is passed explicitly to its consumers.
type Container struct {
	Config   config.Client
	Log      *zap.Logger
	Location *time.Location

	Session *session.Store
	API     *gateway.Client
	Engine  *workflow.Engine

	Auth          *auth.Service
	Users         *users.Repository
	Tools         *tools.Repository
	Requests      *requests.Repository
	Additions     *additions.Repository
	Issues        *issues.Repository
	Notifications *notifications.Repository
	Audit         *audit.Repository
}

func NewAppContainer(cfg config.Client, log *zap.Logger, cache session.Cache, opts ...gateway.Option) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store := session.NewStore(cache, log)
	if err := store.Restore(); err != nil {
		return nil, err
	}

	api := gateway.NewClient(cfg.APIURL, cfg.Timeout, store, append([]gateway.Option{gateway.WithLogger(log)}, opts...)...)
	engine := workflow.NewEngine(store, log)

	return &Container{
		Config:        cfg,
		Log:           log,
		Location:      loc,
		Session:       store,
		API:           api,
		Engine:        engine,
		Auth:          auth.NewService(api, store, log),
		Users:         users.NewRepository(api),
		Tools:         tools.NewRepository(api),
		Requests:      requests.NewRepository(api, engine),
		Additions:     additions.NewRepository(api, engine),
		Issues:        issues.NewRepository(api, engine),
		Notifications: notifications.NewRepository(api),
		Audit:         audit.NewRepository(api),
	}, nil
}

// SessionCache returns the file cache configured by TOOLROOM_SESSION_FILE or
// the default location under the user config directory.
func SessionCache(cfg config.Client) (*session.FileCache, error) {
	path := cfg.SessionFile
	if path == "" {
		var err error
		if path, err = session.DefaultPath(); err != nil {
			return nil, fmt.Errorf("resolve session file: %w", err)
		}
	}
	return session.NewFileCache(path), nil
}
