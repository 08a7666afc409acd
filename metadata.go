package syncengine

import (
	"database/sql"
	"fmt"
)

// getKV reads a single sync_kv value, returning "" if the key is absent.
func (e *Engine) getKV(key string) (string, error) {
	var v string
	err := e.db.QueryRow(`SELECT v FROM sync_kv WHERE k = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

// setKVTx upserts a single sync_kv value within tx.
func setKVTx(tx *Tx, key, value string) error {
	_, err := tx.Exec(
		`INSERT INTO sync_kv(k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		key, value,
	)
	return err
}

// GetRemoteCursor returns the stored server-side pull checkpoint, or nil if
// no cursor has been persisted yet.
func (e *Engine) GetRemoteCursor() (*string, error) {
	const op = "get_remote_cursor"
	var v sql.NullString
	err := e.db.QueryRow(`SELECT v FROM sync_kv WHERE k = 'remote_cursor'`).Scan(&v)
	if err == sql.ErrNoRows || (err == nil && !v.Valid) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr(op, err)
	}
	cursor := v.String
	return &cursor, nil
}

// SetRemoteCursor persists the server-side pull checkpoint.
func (e *Engine) SetRemoteCursor(cursor string) error {
	const op = "set_remote_cursor"
	_, err := e.db.Exec(
		`INSERT INTO sync_kv(k, v) VALUES ('remote_cursor', ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`,
		cursor,
	)
	if err != nil {
		return storeErr(op, err)
	}
	return nil
}
