package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tradeos/fieldsync/internal/apperrors"
)

// migration is one versioned schema step. Migrations are embedded so
// the client needs no external files to initialize its store.
type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "entity collections",
		SQL: `
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'quoted',
			customer_id TEXT NOT NULL DEFAULT '',
			scheduled_date INTEGER NOT NULL DEFAULT 0,
			value REAL NOT NULL DEFAULT 0,
			notes TEXT NOT NULL DEFAULT '',
			sync_status TEXT NOT NULL DEFAULT 'pending',
			last_modified INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
		CREATE INDEX IF NOT EXISTS idx_jobs_sync_status ON jobs(sync_status);
		CREATE INDEX IF NOT EXISTS idx_jobs_customer ON jobs(customer_id);

		CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			due_date INTEGER NOT NULL DEFAULT 0,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			last_modified INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_job ON tasks(job_id);
		CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
		CREATE INDEX IF NOT EXISTS idx_tasks_sync_status ON tasks(sync_status);

		CREATE TABLE IF NOT EXISTS customers (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			address TEXT NOT NULL DEFAULT '',
			sync_status TEXT NOT NULL DEFAULT 'pending',
			last_modified INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_customers_sync_status ON customers(sync_status);

		CREATE TABLE IF NOT EXISTS photos (
			id TEXT PRIMARY KEY,
			job_id TEXT NOT NULL DEFAULT '',
			task_id TEXT NOT NULL DEFAULT '',
			blob BLOB NOT NULL,
			mime_type TEXT NOT NULL,
			size INTEGER NOT NULL,
			captured_at INTEGER NOT NULL,
			latitude REAL,
			longitude REAL,
			accuracy REAL,
			fixed_at INTEGER,
			sync_status TEXT NOT NULL DEFAULT 'pending',
			last_modified INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_photos_job ON photos(job_id);
		CREATE INDEX IF NOT EXISTS idx_photos_task ON photos(task_id);
		CREATE INDEX IF NOT EXISTS idx_photos_sync_status ON photos(sync_status);
		`,
	},
	{
		Version:     2,
		Description: "sync queue and app state",
		SQL: `
		CREATE TABLE IF NOT EXISTS sync_queue (
			id TEXT PRIMARY KEY,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			action TEXT NOT NULL,
			payload TEXT NOT NULL,
			target_url TEXT NOT NULL,
			http_method TEXT NOT NULL,
			priority INTEGER NOT NULL DEFAULT 1,
			enqueued_at INTEGER NOT NULL,
			retry_count INTEGER NOT NULL DEFAULT 0,
			last_error TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_queue_order ON sync_queue(priority DESC, enqueued_at ASC);
		CREATE INDEX IF NOT EXISTS idx_queue_entity ON sync_queue(entity_type, entity_id);

		CREATE TABLE IF NOT EXISTS app_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
		`,
	},
}

// Migrate brings the schema up to the latest embedded version. Each
// migration runs in its own transaction and is recorded in
// schema_migrations.
func Migrate(db *sql.DB) error {
	init := `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY CHECK(version > 0),
		applied_at INTEGER NOT NULL,
		description TEXT NOT NULL
	);`
	if _, err := db.Exec(init); err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to initialize schema_migrations", err)
	}

	applied := make(map[int]bool)
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to read applied migrations", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return apperrors.Wrap(apperrors.ErrMigration, "failed to scan migration version", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return apperrors.Wrap(apperrors.ErrMigration, "failed to read applied migrations", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := applyMigration(db, m); err != nil {
			return apperrors.Wrap(apperrors.ErrMigration,
				fmt.Sprintf("failed to apply migration %d (%s)", m.Version, m.Description), err)
		}
	}

	return nil
}

func applyMigration(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, applied_at, description) VALUES (?, ?, ?)",
		m.Version, time.Now().Unix(), m.Description); err != nil {
		return err
	}

	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrMigration, "failed to read schema version", err)
	}
	return v, nil
}
