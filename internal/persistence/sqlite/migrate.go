package sqlite

import (
	"context"
	"embed"
	"log/slog"

	"github.com/example/autoplanner/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func newMigrationManager(pool *ConnectionPool, logger *slog.Logger) *migration.Manager {
	return migration.NewManager(
		migration.NewScanner(migrationFiles, "migrations"),
		migration.NewSQLiteExecutor(pool.DB()),
		logger,
	)
}

// Migrate brings the schema up to date and returns how many migrations ran.
func Migrate(ctx context.Context, pool *ConnectionPool, logger *slog.Logger) (int, error) {
	return newMigrationManager(pool, logger).Run(ctx)
}

// MigrationStatus reports applied and pending schema migrations.
func MigrationStatus(ctx context.Context, pool *ConnectionPool, logger *slog.Logger) (migration.Status, error) {
	return newMigrationManager(pool, logger).Status(ctx)
}
