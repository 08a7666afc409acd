// Package syncengine implements an embedded, offline-first synchronization
// engine: a durable local oplog with hybrid-logical-clock ordering, a
// transactional and idempotent remote-apply path, a last-writer-wins merge
// helper, and a host-driven push/pull sync-cycle orchestrator.
//
// The engine is schema-agnostic: it owns four metadata tables
// (local_changes, applied_remote_ops, sync_kv, sync_conflicts) inside a SQLite connection
// loaned to it by the host, and never touches the host's own domain tables
// except through the host-supplied Applier capability.
package syncengine

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "modernc.org/sqlite"
)

// Engine binds the sync protocol to a single SQLite connection. An Engine
// is not safe for concurrent use from multiple goroutines — the host must
// serialize calls into a given instance, exactly as it must serialize
// access to the underlying connection.
type Engine struct {
	db  *sql.DB
	log *slog.Logger

	// inApply guards against a reentrant ApplyBatch call from within an
	// applier callback (forbidden per SPEC_FULL.md §5).
	inApply bool
	// curTx is the call-scoped reentrant transaction handle, valid only
	// for the duration of the applier callback inside ApplyBatch.
	curTx *Tx

	// lastErr is not read or written anywhere: the host bridge keeps its
	// last-error state per handle in mobile.handleState, and Go callers
	// get an error return.
	lastErr *Error
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger overrides the default logger (slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// Open opens (or creates) the SQLite database at path — which may be
// ":memory:" — pins the connection pool to a single connection (SQLite
// allows exactly one writer, and the host must serialize calls anyway),
// enables WAL journaling, and initializes the engine's metadata schema.
//
// Close does not close the connection opened here, just as it does not for
// Bind; the connection stays reachable through Conn. Use Bind instead if
// the host already has its own *sql.DB it wants to loan to the engine.
func Open(path string, opts ...Option) (*Engine, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, storeErr("open", fmt.Errorf("open database: %w", err))
	}

	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, storeErr("open", fmt.Errorf("enable WAL mode: %w", err))
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, storeErr("open", fmt.Errorf("set busy timeout: %w", err))
	}
	conn.Exec("PRAGMA synchronous=NORMAL")

	e, err := Bind(conn, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return e, nil
}

// Bind attaches the engine to a connection the host already owns. The
// engine never closes conn — see SPEC_FULL.md §3 "Ownership and lifecycle".
func Bind(conn *sql.DB, opts ...Option) (*Engine, error) {
	e := &Engine{db: conn, log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.InitSchema(); err != nil {
		return nil, err
	}
	return e, nil
}

// Close releases engine-held state. It does not close the underlying
// connection, which the host owns for its own lifetime.
func (e *Engine) Close() error {
	e.curTx = nil
	e.inApply = false
	return nil
}

// Conn returns the underlying *sql.DB, for hosts that need raw access
// (e.g. to run their own domain-table migrations on the same connection).
func (e *Engine) Conn() *sql.DB {
	return e.db
}

// Tx is the reentrant transaction handle an Applier receives during
// ApplyBatch. It is valid only for the duration of the callback.
type Tx struct {
	tx *sql.Tx
}

// Exec executes query against the active transaction. This is the
// "reentrant write surface" of SPEC_FULL.md §4.3 — the applier may issue
// arbitrary DDL/DML here, inside the same transaction as the engine's own
// bookkeeping.
func (t *Tx) Exec(query string, args ...any) (sql.Result, error) {
	return t.tx.Exec(query, args...)
}

// Query runs query against the active transaction.
func (t *Tx) Query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.Query(query, args...)
}

// QueryRow runs query against the active transaction.
func (t *Tx) QueryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRow(query, args...)
}
