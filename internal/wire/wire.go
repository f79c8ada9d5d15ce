// Package wire assembles the kanban application from its configuration:
// database, store, services, session manager, metrics and the HTTP router.
package wire

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/kanban/internal/adapters/httpapi"
	"github.com/example/kanban/internal/adapters/session"
	"github.com/example/kanban/internal/adapters/sqlite"
	"github.com/example/kanban/internal/app"
	"github.com/example/kanban/internal/config"
	"github.com/example/kanban/internal/db"
	"github.com/example/kanban/internal/logging"
	"github.com/example/kanban/internal/observability/metrics"
)

// App is the assembled application.
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	DB       *sql.DB
	Store    *sqlite.Store
	Sessions *session.Manager
	Services httpapi.Services
	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry
}

// New opens the database (applying migrations) and builds every service.
// Log output goes to logOut unless the config names a file.
func New(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.FromConfig(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	database, err := db.Open(ctx, cfg.Database.Path, db.Options{BusyTimeoutMS: cfg.Database.BusyTimeoutMS})
	if err != nil {
		logger.Close()
		return nil, err
	}

	sessions, err := session.NewManager(cfg.Auth.SessionSecret, cfg.Auth.SessionTTL, nil)
	if err != nil {
		database.Close()
		logger.Close()
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	a := &App{Config: cfg, Logger: logger, DB: database, Sessions: sessions}

	env := app.Env{}
	if cfg.Metrics.Enabled {
		a.Registry = metrics.NewRegistry()
		env.Metrics = metrics.NewDomain(a.Registry)
	}

	a.Store = sqlite.NewStore(db.NewSQLiteUnitOfWork(database), nil)
	a.Services = httpapi.Services{
		Identity:   app.NewIdentityService(a.Store, env),
		Tickets:    app.NewTicketService(a.Store, env, cfg.Audit.LogCascadedDeletes),
		Docs:       app.NewDocService(a.Store, env),
		APIKeys:    app.NewAPIKeyService(a.Store, env),
		Workspaces: app.NewWorkspaceService(a.Store, env),
	}
	return a, nil
}

// Router builds the HTTP handler.
func (a *App) Router() *gin.Engine {
	if a.Config.Environment == config.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	return httpapi.NewRouter(a.Services, httpapi.Options{
		Logger:        a.Logger.Logger,
		Sessions:      a.Sessions,
		SessionCookie: a.Config.Auth.SessionCookie,
		Health:        a.Store,
		Registry:      a.Registry,
	})
}

// Close releases the database and log file.
func (a *App) Close() error {
	dbErr := a.DB.Close()
	logErr := a.Logger.Close()
	if dbErr != nil {
		return dbErr
	}
	return logErr
}
