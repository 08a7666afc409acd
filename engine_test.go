package syncengine

import (
	"database/sql"
	"encoding/json"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	e, err := Bind(conn)
	if err != nil {
		t.Fatalf("bind engine: %v", err)
	}
	return e
}

func rawObj(t *testing.T, v map[string]any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestInitSchema_Idempotent(t *testing.T) {
	e := newTestEngine(t)
	if err := e.InitSchema(); err != nil {
		t.Fatalf("second InitSchema call failed: %v", err)
	}
	v, err := e.GetSchemaVersion()
	if err != nil {
		t.Fatalf("get schema version: %v", err)
	}
	if v != 1 {
		t.Fatalf("expected schema_version=1, got %d", v)
	}
}

func TestRunMigrations_RejectsInvalidTarget(t *testing.T) {
	e := newTestEngine(t)
	if err := e.RunMigrations(0); !IsState(err) {
		t.Fatalf("expected State error for target=0, got %v", err)
	}
}

func TestRunMigrations_NoOpWhenTargetNotAhead(t *testing.T) {
	e := newTestEngine(t)
	if err := e.RunMigrations(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := e.GetSchemaVersion()
	if v != 1 {
		t.Fatalf("expected version unchanged at 1, got %d", v)
	}
}

func TestRunMigrations_AdvancesVersion(t *testing.T) {
	e := newTestEngine(t)
	if err := e.RunMigrations(2); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	v, err := e.GetSchemaVersion()
	if err != nil {
		t.Fatalf("get schema version: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected version 2, got %d", v)
	}

	var count int
	err = e.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_sync_conflicts_recorded'`).Scan(&count)
	if err != nil {
		t.Fatalf("check index: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected migration 2's index to exist")
	}
}
