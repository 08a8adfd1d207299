package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jakechorley/timeshift/internal/config"
	"github.com/jakechorley/timeshift/pkg/core/callout"
	"github.com/jakechorley/timeshift/pkg/db"
	"github.com/jakechorley/timeshift/pkg/memstore"
	"github.com/jakechorley/timeshift/pkg/metrics"
	"github.com/jakechorley/timeshift/pkg/postgres"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Store    db.Store
	Postgres *postgres.DB // nil unless database.driver is postgres
	Service  *callout.Service
	Logger   *zap.Logger
	Ctx      context.Context

	// Caller identity, set from --actor, --org and --role
	ActorID string
	OrgID   string
	Role    string

	// JSON switches command output to indented JSON
	JSON bool
}

// Actor returns the identity commands act as
func (app *AppContext) Actor() callout.Actor {
	return callout.Actor{
		UserID: app.ActorID,
		OrgID:  app.OrgID,
		Role:   callout.ParseRole(app.Role),
	}
}

// OpenStore connects the configured backend and builds the callout service on top of it
func (app *AppContext) OpenStore() error {
	switch app.Cfg.Database.Driver {
	case "postgres":
		app.Logger.Info("Connecting to PostgreSQL")
		pg, err := postgres.NewDB(app.Ctx, app.Cfg.Database.URL, app.Cfg.Database.MaxConns)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		app.Postgres = pg
		app.Store = pg
	case "memory":
		if app.Cfg.Database.Fixture != "" {
			app.Logger.Info("Loading fixture", zap.String("path", app.Cfg.Database.Fixture))
			s, err := memstore.LoadFixture(app.Cfg.Database.Fixture)
			if err != nil {
				return fmt.Errorf("failed to load fixture: %w", err)
			}
			app.Store = s
		} else {
			app.Store = memstore.New()
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", app.Cfg.Database.Driver)
	}
	app.Logger.Debug("Store initialized", zap.String("driver", app.Cfg.Database.Driver))

	fiscal, err := app.Cfg.FiscalYearPolicy()
	if err != nil {
		return fmt.Errorf("failed to build fiscal year policy: %w", err)
	}

	app.Service = callout.NewService(app.Store, app.Logger, callout.Options{
		FiscalYear: fiscal,
		RestPeriod: app.Cfg.Callout.RestPeriod(),
		Recorder:   metrics.CalloutRecorder{},
	})
	return nil
}

// Close releases the database pool, if any
func (app *AppContext) Close() {
	if app.Postgres != nil {
		app.Postgres.Close()
	}
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
