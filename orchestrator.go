package syncengine

import "fmt"

// SyncResult summarizes one sync_cycle round.
type SyncResult struct {
	Pushed      int
	Acked       []int64
	Pulled      int
	Applied     ApplyResult
	CursorMoved bool
}

// SyncCycle runs one push+pull round using host-provided transport
// callables, per SPEC_FULL.md §4.5:
//
//  1. Fetch up to limit pending local changes.
//  2. If non-empty, call push(changes); mark the ids it reports accepted
//     as acked (the two-step pending->pushed->acked model collapses to
//     pending->acked here — see SPEC_FULL.md §9's open question).
//  3. Read the stored remote cursor.
//  4. Call pull(cursor).
//  5. If ops is non-empty, ApplyBatch them.
//  6. If a new cursor came back, persist it — but only once step 5 (if it
//     ran) has succeeded, so a failed apply never advances past data the
//     next cycle still needs to re-pull.
//
// Steps 2, 5, and 6 each commit independently; SyncCycle does not retry
// internally.
func (e *Engine) SyncCycle(push PushFunc, pull PullFunc, limit int, applier Applier) (SyncResult, error) {
	const op = "sync_cycle"
	var result SyncResult

	pending, err := e.GetPending(limit)
	if err != nil {
		return result, err
	}
	if len(pending) > 0 {
		acked, err := push(pending)
		if err != nil {
			return result, hostErr(op, fmt.Errorf("push: %w", err))
		}
		if err := e.MarkAcked(acked); err != nil {
			return result, err
		}
		result.Pushed = len(pending)
		result.Acked = acked
	}

	cursor, err := e.GetRemoteCursor()
	if err != nil {
		return result, err
	}

	pullResult, err := pull(cursor)
	if err != nil {
		return result, hostErr(op, fmt.Errorf("pull: %w", err))
	}
	result.Pulled = len(pullResult.Ops)

	if len(pullResult.Ops) > 0 {
		applyResult, err := e.ApplyBatch(pullResult.Ops, applier)
		if err != nil {
			// Apply failed: the cursor must NOT advance, so the next
			// cycle re-pulls the same ops (SPEC_FULL.md §4.5, §8
			// property 7).
			return result, err
		}
		result.Applied = applyResult
	}

	if pullResult.NewCursor != nil {
		if err := e.SetRemoteCursor(*pullResult.NewCursor); err != nil {
			return result, err
		}
		result.CursorMoved = true
	}

	return result, nil
}
