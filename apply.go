package syncengine

import (
	"encoding/json"
	"fmt"
)

// ApplyResult summarizes the outcome of an ApplyBatch call.
type ApplyResult struct {
	Applied           int
	SkippedDuplicates int // already in applied_remote_ops before this call
	SkippedInBatch    int // same remote_id repeated within this batch
}

// ApplyBatch transactionally and idempotently applies ops to the host's
// domain tables via applier. Either every new op and its idempotency
// marker commit, or none do. Ops already present in applied_remote_ops
// are skipped without invoking applier. Re-entering ApplyBatch from
// within an applier callback is forbidden and reported as a State error.
//
// Grounded on original_source/src/oplog.rs::apply_remote_ops.
func (e *Engine) ApplyBatch(ops []RemoteOp, applier Applier) (ApplyResult, error) {
	const op = "apply_batch"
	var result ApplyResult

	if e.inApply {
		return result, stateErr(op, "nested apply_batch call")
	}
	if applier == nil {
		return result, stateErr(op, "nil applier")
	}

	// Deduplicate in-memory by remote_id before touching the store, so a
	// remote_id repeated within one input batch is applied at most once
	// even though its idempotency marker is only visible to SELECT after
	// commit (SPEC_FULL.md §4.3).
	seen := make(map[string]bool, len(ops))
	deduped := make([]RemoteOp, 0, len(ops))
	for _, o := range ops {
		if seen[o.RemoteID] {
			result.SkippedInBatch++
			continue
		}
		seen[o.RemoteID] = true
		deduped = append(deduped, o)
	}

	sqlTx, err := e.db.Begin()
	if err != nil {
		return result, storeErr(op, fmt.Errorf("begin: %w", err))
	}
	tx := &Tx{tx: sqlTx}

	e.inApply = true
	e.curTx = tx
	defer func() {
		e.inApply = false
		e.curTx = nil
	}()

	for _, remoteOp := range deduped {
		if remoteOp.RemoteID == "" {
			sqlTx.Rollback()
			return result, stateErr(op, "remote op missing remote_id")
		}
		switch remoteOp.OpType {
		case OpInsert, OpUpdate, OpDelete:
		default:
			sqlTx.Rollback()
			return result, stateErr(op, fmt.Sprintf("invalid op_type %q", remoteOp.OpType))
		}

		var exists int
		err := tx.QueryRow(`SELECT 1 FROM applied_remote_ops WHERE remote_id = ?`, remoteOp.RemoteID).Scan(&exists)
		if err == nil {
			result.SkippedDuplicates++
			continue
		}

		if err := applier.Apply(tx, remoteOp); err != nil {
			sqlTx.Rollback()
			return ApplyResult{}, hostErr(op, fmt.Errorf("applier failed for remote_id=%s: %w", remoteOp.RemoteID, err))
		}

		if _, err := tx.Exec(
			`INSERT INTO applied_remote_ops (remote_id, applied_ms) VALUES (?, ?)`,
			remoteOp.RemoteID, nowMillis(),
		); err != nil {
			sqlTx.Rollback()
			return ApplyResult{}, storeErr(op, fmt.Errorf("record applied remote_id=%s: %w", remoteOp.RemoteID, err))
		}

		result.Applied++
	}

	if err := sqlTx.Commit(); err != nil {
		return ApplyResult{}, storeErr(op, fmt.Errorf("commit: %w", err))
	}

	e.log.Debug("apply_batch complete", "applied", result.Applied, "skipped_duplicates", result.SkippedDuplicates, "skipped_in_batch", result.SkippedInBatch)
	return result, nil
}

// RecordConflict lets an Applier append a ConflictRecord inside the active
// ApplyBatch transaction when it detects an overwrite the host wants to
// surface — e.g. after comparing HLCs with ShouldOverwrite. This is pure
// bookkeeping: it never affects ApplyBatch's control flow or return value.
func (t *Tx) RecordConflict(remoteOp RemoteOp, localSnapshot json.RawMessage) error {
	_, err := t.Exec(
		`INSERT INTO sync_conflicts (table_name, row_id, remote_id, local_snapshot, remote_snapshot, recorded_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		remoteOp.TableName, remoteOp.RowID, remoteOp.RemoteID,
		nullableString(localSnapshot), nullableString(remoteOp.NewRow), nowMillis(),
	)
	return err
}

// RecentConflicts returns up to limit ConflictRecords, most recent first.
func (e *Engine) RecentConflicts(limit int) ([]ConflictRecord, error) {
	const op = "recent_conflicts"
	rows, err := e.db.Query(
		`SELECT id, table_name, row_id, remote_id, local_snapshot, remote_snapshot, recorded_ms
		 FROM sync_conflicts ORDER BY recorded_ms DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var out []ConflictRecord
	for rows.Next() {
		var c ConflictRecord
		var local, remote []byte
		if err := rows.Scan(&c.ID, &c.TableName, &c.RowID, &c.RemoteID, &local, &remote, &c.RecordedMs); err != nil {
			return nil, storeErr(op, err)
		}
		c.LocalSnapshot = local
		c.RemoteSnapshot = remote
		out = append(out, c)
	}
	return out, rows.Err()
}
