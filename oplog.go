package syncengine

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// LogInsert appends a pending INSERT record to the local oplog and returns
// its change_id. newRow must parse as a JSON object.
func (e *Engine) LogInsert(table, rowID string, newRow json.RawMessage, origin string) (int64, error) {
	const op = "log_insert"
	if !isJSONObject(newRow) {
		return 0, encodingErr(op, fmt.Errorf("new_row must be a JSON object"))
	}
	return e.appendChange(op, table, rowID, OpInsert, nil, newRow, nil, origin)
}

// LogUpdate appends a pending UPDATE record. columns, newRow, and oldRow
// are all optional, but each one supplied must parse as valid JSON.
func (e *Engine) LogUpdate(table, rowID string, columns, newRow, oldRow json.RawMessage, origin string) (int64, error) {
	const op = "log_update"
	for _, v := range []json.RawMessage{columns, newRow, oldRow} {
		if len(v) > 0 && !json.Valid(v) {
			return 0, encodingErr(op, fmt.Errorf("malformed JSON field"))
		}
	}
	return e.appendChange(op, table, rowID, OpUpdate, columns, newRow, oldRow, origin)
}

// LogDelete appends a pending DELETE record with no row snapshots.
func (e *Engine) LogDelete(table, rowID, origin string) (int64, error) {
	return e.appendChange("log_delete", table, rowID, OpDelete, nil, nil, nil, origin)
}

// appendChange obtains a fresh HLC and inserts the change row in the same
// transaction, so the HLC advance and the oplog append commit or roll back
// together (SPEC_FULL.md §5: "HLC advance may be folded into the same
// transaction ... the former is preferred").
func (e *Engine) appendChange(op, table, rowID string, opType OpType, columns, newRow, oldRow json.RawMessage, origin string) (int64, error) {
	nowMs := nowMillis()

	sqlTx, err := e.db.Begin()
	if err != nil {
		return 0, storeErr(op, fmt.Errorf("begin: %w", err))
	}
	tx := &Tx{tx: sqlTx}

	lastMs, lastCtr, _ := readHLCState(tx)
	var nextMs, nextCtr int64
	if nowMs > lastMs {
		nextMs, nextCtr = nowMs, 0
	} else {
		nextMs, nextCtr = lastMs, lastCtr+1
	}
	hlc := formatHLC(nextMs, nextCtr, origin)

	if err := setKVTx(tx, "hlc_last_ms", itoa(nextMs)); err != nil {
		sqlTx.Rollback()
		return 0, storeErr(op, fmt.Errorf("persist hlc_last_ms: %w", err))
	}
	if err := setKVTx(tx, "hlc_last_ctr", itoa(nextCtr)); err != nil {
		sqlTx.Rollback()
		return 0, storeErr(op, fmt.Errorf("persist hlc_last_ctr: %w", err))
	}

	res, err := tx.Exec(
		`INSERT INTO local_changes (table_name, row_id, op_type, columns, new_row, old_row, hlc, origin, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		table, rowID, string(opType),
		nullableString(columns), nullableString(newRow), nullableString(oldRow),
		hlc, origin,
	)
	if err != nil {
		sqlTx.Rollback()
		return 0, storeErr(op, fmt.Errorf("insert local_changes: %w", err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		sqlTx.Rollback()
		return 0, storeErr(op, fmt.Errorf("last insert id: %w", err))
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, storeErr(op, fmt.Errorf("commit: %w", err))
	}

	e.log.Debug("change logged", "change_id", id, "table", table, "row_id", rowID, "op_type", opType, "hlc", hlc)
	return id, nil
}

// GetPending returns up to limit records with sync_status='pending',
// ordered ascending by change_id. A malformed JSON cell is rehydrated as
// an explicit JSON null rather than aborting the batch.
func (e *Engine) GetPending(limit int) ([]Change, error) {
	const op = "get_pending"
	rows, err := e.db.Query(
		`SELECT change_id, table_name, row_id, op_type, columns, new_row, old_row, hlc, origin, sync_status
		 FROM local_changes WHERE sync_status = 'pending' ORDER BY change_id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, storeErr(op, fmt.Errorf("query pending: %w", err))
	}
	defer rows.Close()

	var out []Change
	for rows.Next() {
		var c Change
		var opType, status string
		var columns, newRow, oldRow sql.NullString
		if err := rows.Scan(&c.ChangeID, &c.TableName, &c.RowID, &opType, &columns, &newRow, &oldRow, &c.HLC, &c.Origin, &status); err != nil {
			return nil, storeErr(op, fmt.Errorf("scan: %w", err))
		}
		c.OpType = OpType(opType)
		c.SyncStatus = SyncStatus(status)
		c.Columns = rehydrateJSON(columns)
		c.NewRow = rehydrateJSON(newRow)
		c.OldRow = rehydrateJSON(oldRow)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, fmt.Errorf("rows: %w", err))
	}
	return out, nil
}

// MarkPushed transitions the given change ids to 'pushed'. Ids that match
// no row are silently ignored, and rows already 'acked' are left as they
// are. The whole batch commits or rolls back together.
func (e *Engine) MarkPushed(ids []int64) error {
	return e.markStatus("mark_pushed", ids, StatusPushed)
}

// MarkAcked transitions the given change ids to 'acked'. Ids that match no
// row are silently ignored.
func (e *Engine) MarkAcked(ids []int64) error {
	return e.markStatus("mark_acked", ids, StatusAcked)
}

func (e *Engine) markStatus(op string, ids []int64, status SyncStatus) error {
	if len(ids) == 0 {
		return nil
	}
	sqlTx, err := e.db.Begin()
	if err != nil {
		return storeErr(op, fmt.Errorf("begin: %w", err))
	}
	stmt, err := sqlTx.Prepare(`UPDATE local_changes SET sync_status = ? WHERE change_id = ? AND sync_status != 'acked'`)
	if err != nil {
		sqlTx.Rollback()
		return storeErr(op, fmt.Errorf("prepare: %w", err))
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.Exec(string(status), id); err != nil {
			sqlTx.Rollback()
			return storeErr(op, fmt.Errorf("update change_id=%d: %w", id, err))
		}
	}
	if err := sqlTx.Commit(); err != nil {
		return storeErr(op, fmt.Errorf("commit: %w", err))
	}
	e.log.Debug("changes transitioned", "status", status, "count", len(ids))
	return nil
}

func isJSONObject(v json.RawMessage) bool {
	if len(v) == 0 {
		return false
	}
	var m map[string]any
	return json.Unmarshal(v, &m) == nil
}

func nullableString(v json.RawMessage) any {
	if len(v) == 0 {
		return nil
	}
	return string(v)
}

func rehydrateJSON(v sql.NullString) json.RawMessage {
	if !v.Valid {
		return nil
	}
	if !json.Valid([]byte(v.String)) {
		return json.RawMessage("null")
	}
	return json.RawMessage(v.String)
}
