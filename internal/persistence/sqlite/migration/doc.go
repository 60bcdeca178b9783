// Package migration applies versioned SQL migrations to a SQLite database.
//
// Migration files are read from an fs.FS (usually an embed.FS) and must be
// named {version}_{description}.sql, e.g. "001_create_events.sql". Applied
// versions and their checksums are tracked in a schema_migrations table;
// each migration runs and is recorded inside a single transaction.
//
//	scanner := migration.NewScanner(files, "migrations")
//	manager := migration.NewManager(scanner, migration.NewSQLiteExecutor(db), logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
