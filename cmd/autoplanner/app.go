package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/example/autoplanner/internal/application"
	"github.com/example/autoplanner/internal/config"
	"github.com/example/autoplanner/internal/logging"
	"github.com/example/autoplanner/internal/normalize"
	"github.com/example/autoplanner/internal/persistence/sqlite"
	"github.com/example/autoplanner/internal/persistence/sqlite/migration"
)

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "autoplanner",
		Usage:     "Normalize loosely structured event data and schedule it into a calendar store.",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "YAML configuration file", EnvVars: []string{config.ConfigFileEnv}},
			&cli.StringFlag{Name: "db", Usage: "SQLite database path, overriding sqlite_dsn"},
		},
		Commands: []*cli.Command{
			normalizeCommand(),
			scheduleCommand(),
			listCommand(),
			exportCommand(),
			serveCommand(),
			migrateCommand(),
		},
	}
}

// runtime holds what every command needs: configuration, a logger and the
// clock the event service reads.
type runtime struct {
	cfg    config.Config
	logger *slog.Logger
	now    func() time.Time
}

func loadRuntime(c *cli.Context) (*runtime, error) {
	cfg, err := config.LoadFile(strings.TrimSpace(c.String("config")))
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	if db := strings.TrimSpace(c.String("db")); db != "" {
		cfg.SQLiteDSN = db
	}
	return &runtime{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, cfg.LogFormat, c.App.ErrWriter),
		now:    time.Now,
	}, nil
}

// openStore opens the configured database and applies pending migrations.
func (rt *runtime) openStore(ctx context.Context) (*sqlite.ConnectionPool, error) {
	pool, err := sqlite.NewConnectionPool(migration.DefaultSQLiteConfig(rt.cfg.SQLiteDSN))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	applied, err := sqlite.Migrate(ctx, pool, rt.logger)
	if err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	if applied > 0 {
		rt.logger.InfoContext(ctx, "database migrated", "applied", applied, "dsn", rt.cfg.SQLiteDSN)
	}
	return pool, nil
}

// eventService builds the service over pool. A nil pool yields a service that
// can only normalize.
func (rt *runtime) eventService(pool *sqlite.ConnectionPool) (*application.EventService, error) {
	normalizerCfg, err := rt.cfg.Normalizer()
	if err != nil {
		return nil, err
	}
	normalizer := normalize.New(normalizerCfg, rt.logger)

	var events application.EventRepository
	if pool != nil {
		events = newEventRepositoryAdapter(sqlite.NewEventRepository(pool))
	}
	return application.NewEventServiceWithLogger(events, normalizer, uuid.NewString, rt.now, rt.logger).
		WithNormalizeWorkers(rt.cfg.BatchWorkers), nil
}

func closeStore(pool *sqlite.ConnectionPool, logger *slog.Logger) {
	if err := pool.Close(); err != nil {
		logger.Error("failed to close storage", "error", err)
	}
}
