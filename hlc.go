package syncengine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// nextHLC produces the next monotonic hybrid logical clock token for
// origin: "{ms}-{ctr}-{origin}". The read-modify-write against sync_kv
// executes inside a single transaction so concurrent callers sharing a
// store are serialized by SQLite's own locking.
//
// Algorithm (SPEC_FULL.md §4.1): let now be the wall clock in
// milliseconds. If now is greater than the last emitted ms, the new token
// is (now, 0). Otherwise the wall clock has not advanced (or has
// regressed) since the last call, and the new token reuses the last ms
// with the counter incremented — this tolerates clock regressions and
// coarse wall-clock resolution while keeping tokens strictly ordered.
func (e *Engine) nextHLC(op, origin string) (string, error) {
	nowMs := time.Now().UnixMilli()

	sqlTx, err := e.db.Begin()
	if err != nil {
		return "", storeErr(op, fmt.Errorf("begin: %w", err))
	}
	tx := &Tx{tx: sqlTx}

	lastMs, lastCtr, err := readHLCState(tx)
	if err != nil {
		sqlTx.Rollback()
		return "", storeErr(op, fmt.Errorf("read hlc state: %w", err))
	}

	var nextMs, nextCtr int64
	if nowMs > lastMs {
		nextMs, nextCtr = nowMs, 0
	} else {
		nextMs, nextCtr = lastMs, lastCtr+1
	}

	if err := setKVTx(tx, "hlc_last_ms", strconv.FormatInt(nextMs, 10)); err != nil {
		sqlTx.Rollback()
		return "", storeErr(op, fmt.Errorf("persist hlc_last_ms: %w", err))
	}
	if err := setKVTx(tx, "hlc_last_ctr", strconv.FormatInt(nextCtr, 10)); err != nil {
		sqlTx.Rollback()
		return "", storeErr(op, fmt.Errorf("persist hlc_last_ctr: %w", err))
	}

	if err := sqlTx.Commit(); err != nil {
		return "", storeErr(op, fmt.Errorf("commit: %w", err))
	}

	token := formatHLC(nextMs, nextCtr, origin)
	e.log.Debug("hlc advanced", "token", token)
	return token, nil
}

// NextHLC is the host-facing entry point for obtaining a fresh HLC token
// without also appending an oplog entry (mirrors original_source's
// standalone sync_next_hlc FFI export).
func (e *Engine) NextHLC(origin string) (string, error) {
	return e.nextHLC("next_hlc", origin)
}

func readHLCState(tx *Tx) (ms int64, ctr int64, err error) {
	var msStr, ctrStr string
	row := tx.QueryRow(`SELECT v FROM sync_kv WHERE k = 'hlc_last_ms'`)
	if scanErr := row.Scan(&msStr); scanErr == nil {
		ms, _ = strconv.ParseInt(msStr, 10, 64)
	}
	row = tx.QueryRow(`SELECT v FROM sync_kv WHERE k = 'hlc_last_ctr'`)
	if scanErr := row.Scan(&ctrStr); scanErr == nil {
		ctr, _ = strconv.ParseInt(ctrStr, 10, 64)
	}
	return ms, ctr, nil
}

func formatHLC(ms, ctr int64, origin string) string {
	return fmt.Sprintf("%d-%d-%s", ms, ctr, origin)
}

// parseHLCLenient splits an HLC token into its (ms, ctr, origin) triple.
// Missing or non-integer components default to zero/empty rather than
// erroring. This is the comparison-context behavior from
// original_source/src/merge.rs::parse_hlc, preserved per SPEC_FULL.md §9's
// open question: callers doing ordering comparisons need robustness even
// against a malformed token, so lenient parsing stays here.
func parseHLCLenient(s string) (ms int64, ctr int64, origin string) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) > 0 {
		ms, _ = strconv.ParseInt(parts[0], 10, 64)
	}
	if len(parts) > 1 {
		ctr, _ = strconv.ParseInt(parts[1], 10, 64)
	}
	if len(parts) > 2 {
		origin = parts[2]
	}
	return ms, ctr, origin
}

// ParseHLC validates and parses an HLC token, returning an Encoding error
// for malformed input. Use this in new code paths (e.g. validating a
// RemoteOp before it enters the oplog) where silently coercing garbage to
// zero would hide a real bug — see SPEC_FULL.md §9.
func ParseHLC(s string) (ms int64, ctr int64, origin string, err error) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return 0, 0, "", encodingErr("parse_hlc", fmt.Errorf("malformed hlc token %q", s))
	}
	ms, err1 := strconv.ParseInt(parts[0], 10, 64)
	ctr, err2 := strconv.ParseInt(parts[1], 10, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, "", encodingErr("parse_hlc", fmt.Errorf("malformed hlc token %q", s))
	}
	return ms, ctr, parts[2], nil
}

// compareHLC returns -1, 0, or 1 comparing a and b as the (ms, ctr, origin)
// triple, using lenient parsing so callers can always get an ordering
// answer even over a token that failed to be written correctly.
func compareHLC(a, b string) int {
	aMs, aCtr, aOrigin := parseHLCLenient(a)
	bMs, bCtr, bOrigin := parseHLCLenient(b)
	if aMs != bMs {
		if aMs < bMs {
			return -1
		}
		return 1
	}
	if aCtr != bCtr {
		if aCtr < bCtr {
			return -1
		}
		return 1
	}
	return strings.Compare(aOrigin, bOrigin)
}
