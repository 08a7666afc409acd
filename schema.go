package syncengine

import (
	"fmt"
)

// CurrentSchemaVersion is the version InitSchema seeds for a fresh
// database before any migration has run.
const CurrentSchemaVersion = 1

// LatestSchemaVersion returns the highest version this binary knows how
// to migrate to, for hosts that want RunMigrations(LatestSchemaVersion())
// rather than a hardcoded target.
func LatestSchemaVersion() int {
	latest := CurrentSchemaVersion
	for _, m := range migrations {
		if m.Version > latest {
			latest = m.Version
		}
	}
	return latest
}

// migration is one stepwise schema change, keyed by destination version,
// modeled on the teacher's internal/db/migrations.go Migrations registry.
type migration struct {
	Version     int
	Description string
	Apply       func(tx *Tx) error
}

// migrations is the internal ordered list of migration steps. Version 1 is
// seeded directly by InitSchema, so the registry only carries steps beyond
// it; it exists from day one so RunMigrations has real plumbing to drive,
// not just a version bump.
var migrations = []migration{
	{
		Version:     2,
		Description: "add recorded_ms index to sync_conflicts for monitor queries",
		Apply: func(tx *Tx) error {
			_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_sync_conflicts_recorded ON sync_conflicts(recorded_ms)`)
			return err
		},
	},
}

// InitSchema creates the engine's metadata tables and indexes idempotently
// and seeds schema_version=1. Safe to call multiple times.
func (e *Engine) InitSchema() error {
	const op = "init_schema"
	_, err := e.db.Exec(`
CREATE TABLE IF NOT EXISTS local_changes (
	change_id   INTEGER PRIMARY KEY AUTOINCREMENT,
	table_name  TEXT NOT NULL,
	row_id      TEXT NOT NULL,
	op_type     TEXT NOT NULL CHECK(op_type IN ('INSERT','UPDATE','DELETE')),
	columns     TEXT,
	new_row     TEXT,
	old_row     TEXT,
	hlc         TEXT NOT NULL,
	origin      TEXT NOT NULL,
	sync_status TEXT NOT NULL DEFAULT 'pending' CHECK(sync_status IN ('pending','pushed','acked')),
	UNIQUE(hlc, origin)
);

CREATE INDEX IF NOT EXISTS idx_local_changes_status ON local_changes(sync_status, change_id);

CREATE TABLE IF NOT EXISTS applied_remote_ops (
	remote_id  TEXT PRIMARY KEY,
	applied_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_kv (
	k TEXT PRIMARY KEY,
	v TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_conflicts (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	table_name      TEXT NOT NULL,
	row_id          TEXT NOT NULL,
	remote_id       TEXT NOT NULL,
	local_snapshot  TEXT,
	remote_snapshot TEXT,
	recorded_ms     INTEGER NOT NULL
);
`)
	if err != nil {
		return storeErr(op, fmt.Errorf("create schema: %w", err))
	}

	_, err = e.db.Exec(`INSERT OR IGNORE INTO sync_kv(k, v) VALUES ('schema_version', '1')`)
	if err != nil {
		return storeErr(op, fmt.Errorf("seed schema_version: %w", err))
	}
	e.log.Debug("schema initialized")
	return nil
}

// GetSchemaVersion returns the current integer schema version from sync_kv.
func (e *Engine) GetSchemaVersion() (int, error) {
	const op = "get_schema_version"
	v, err := e.getKV("schema_version")
	if err != nil {
		return 0, storeErr(op, err)
	}
	if v == "" {
		return 1, nil
	}
	var n int
	if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
		return 1, nil
	}
	return n, nil
}

// RunMigrations advances schema_version to target within a single
// transaction. target < 1 is invalid. target <= current is a no-op.
func (e *Engine) RunMigrations(target int) error {
	const op = "run_migrations"
	if target < 1 {
		return stateErr(op, "invalid target_version")
	}

	current, err := e.GetSchemaVersion()
	if err != nil {
		return err
	}
	if target <= current {
		return nil
	}

	sqlTx, err := e.db.Begin()
	if err != nil {
		return storeErr(op, fmt.Errorf("begin: %w", err))
	}
	tx := &Tx{tx: sqlTx}

	for _, m := range migrations {
		if m.Version <= current || m.Version > target {
			continue
		}
		if err := m.Apply(tx); err != nil {
			sqlTx.Rollback()
			return storeErr(op, fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err))
		}
		e.log.Info("migration applied", "version", m.Version, "description", m.Description)
	}

	if _, err := sqlTx.Exec(
		`INSERT INTO sync_kv(k, v) VALUES ('schema_version', ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		fmt.Sprintf("%d", target),
	); err != nil {
		sqlTx.Rollback()
		return storeErr(op, fmt.Errorf("set schema_version: %w", err))
	}

	if err := sqlTx.Commit(); err != nil {
		return storeErr(op, fmt.Errorf("commit: %w", err))
	}
	return nil
}
