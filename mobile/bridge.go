//go:build cgo

// Package mobile exposes the sync engine through a C ABI so it can be
// linked into a Swift or Kotlin host via cgo. Handles are int32 tokens
// into a package-level registry rather than raw Go pointers, so the C
// side never holds anything the Go runtime needs to track.
//
// Grounded on original_source/src/ffi.rs: the exported function set and
// argument shapes mirror that file's rusqlite-backed bridge, translated
// to cgo idiom (C strings instead of CStr/CString, an explicit registry
// instead of Box::into_raw).
package mobile

/*
#include <stdlib.h>
*/
import "C"

import (
	"database/sql"
	"encoding/json"
	"sync"
	"unsafe"

	syncengine "github.com/marcus/syncengine"

	_ "modernc.org/sqlite"
)

var (
	registryMu sync.Mutex
	registry   = map[int32]*handleState{}
	nextHandle int32
)

type handleState struct {
	engine   *syncengine.Engine
	conn     *sql.DB
	lastErr  string
	lastCode int32
}

func lookup(handle int32) *handleState {
	registryMu.Lock()
	defer registryMu.Unlock()
	return registry[handle]
}

func setError(h *handleState, code int32, msg string) {
	h.lastCode = code
	h.lastErr = msg
}

func cgoString(s string) *C.char {
	return C.CString(s)
}

// sync_open opens (or creates) a SQLite database at path (or ":memory:")
// and initializes the schema. Returns a handle >= 0, or -1 on failure.
//
//export sync_open
func sync_open(path *C.char) C.int32_t {
	if path == nil {
		return -1
	}
	goPath := C.GoString(path)

	conn, err := sql.Open("sqlite", goPath)
	if err != nil {
		return -1
	}
	conn.SetMaxOpenConns(1)

	engine, err := syncengine.Bind(conn)
	if err != nil {
		conn.Close()
		return -1
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	h := nextHandle
	nextHandle++
	registry[h] = &handleState{engine: engine, conn: conn}
	return C.int32_t(h)
}

// sync_close releases the connection and forgets the handle.
//
//export sync_close
func sync_close(handle C.int32_t) {
	registryMu.Lock()
	defer registryMu.Unlock()
	h, ok := registry[int32(handle)]
	if !ok {
		return
	}
	h.conn.Close()
	delete(registry, int32(handle))
}

// sync_init_schema re-runs schema initialization. 0 on success, 1 on
// store failure, 2 on an unknown handle.
//
//export sync_init_schema
func sync_init_schema(handle C.int32_t) C.int {
	h := lookup(int32(handle))
	if h == nil {
		return 2
	}
	if err := h.engine.InitSchema(); err != nil {
		setError(h, int32(syncengine.CodeStore), err.Error())
		return 1
	}
	return 0
}

// sync_next_hlc returns a newly allocated token string, or NULL on
// failure. Caller must release it with sync_string_free.
//
//export sync_next_hlc
func sync_next_hlc(handle C.int32_t, origin *C.char) *C.char {
	h := lookup(int32(handle))
	if h == nil || origin == nil {
		return nil
	}
	token, err := h.engine.NextHLC(C.GoString(origin))
	if err != nil {
		setError(h, int32(syncengine.CodeStore), err.Error())
		return nil
	}
	return cgoString(token)
}

// sync_log_insert_fullrow logs an INSERT with a full-row JSON snapshot.
// Returns the new change_id (>= 1), or -1 on failure.
//
//export sync_log_insert_fullrow
func sync_log_insert_fullrow(handle C.int32_t, tableName, rowID, newRowJSON, origin *C.char) C.int64_t {
	h := lookup(int32(handle))
	if h == nil || tableName == nil || rowID == nil || newRowJSON == nil || origin == nil {
		return -1
	}
	id, err := h.engine.LogInsert(C.GoString(tableName), C.GoString(rowID), json.RawMessage(C.GoString(newRowJSON)), C.GoString(origin))
	if err != nil {
		setError(h, int32(syncengine.CodeOf(err)), err.Error())
		return -1
	}
	return C.int64_t(id)
}

// sync_log_update logs an UPDATE. columns_json, new_row_json, and
// old_row_json may each be NULL. Returns the new change_id, or -1.
//
//export sync_log_update
func sync_log_update(handle C.int32_t, tableName, rowID, columnsJSON, newRowJSON, oldRowJSON, origin *C.char) C.int64_t {
	h := lookup(int32(handle))
	if h == nil || tableName == nil || rowID == nil || origin == nil {
		return -1
	}
	id, err := h.engine.LogUpdate(
		C.GoString(tableName), C.GoString(rowID),
		optionalJSON(columnsJSON), optionalJSON(newRowJSON), optionalJSON(oldRowJSON),
		C.GoString(origin),
	)
	if err != nil {
		setError(h, int32(syncengine.CodeOf(err)), err.Error())
		return -1
	}
	return C.int64_t(id)
}

// sync_log_delete logs a DELETE. Returns the new change_id, or -1.
//
//export sync_log_delete
func sync_log_delete(handle C.int32_t, tableName, rowID, origin *C.char) C.int64_t {
	h := lookup(int32(handle))
	if h == nil || tableName == nil || rowID == nil || origin == nil {
		return -1
	}
	id, err := h.engine.LogDelete(C.GoString(tableName), C.GoString(rowID), C.GoString(origin))
	if err != nil {
		setError(h, int32(syncengine.CodeOf(err)), err.Error())
		return -1
	}
	return C.int64_t(id)
}

// sync_get_pending_ops_json returns up to limit pending changes as a
// JSON array string, or NULL on failure.
//
//export sync_get_pending_ops_json
func sync_get_pending_ops_json(handle C.int32_t, limit C.int64_t) *C.char {
	h := lookup(int32(handle))
	if h == nil {
		return nil
	}
	changes, err := h.engine.GetPending(int(limit))
	if err != nil {
		setError(h, int32(syncengine.CodeOf(err)), err.Error())
		return nil
	}
	out, err := json.Marshal(changes)
	if err != nil {
		setError(h, int32(syncengine.CodeEncoding), err.Error())
		return nil
	}
	return cgoString(string(out))
}

// sync_mark_ops_pushed transitions ids to 'pushed'. 0 on success.
//
//export sync_mark_ops_pushed
func sync_mark_ops_pushed(handle C.int32_t, ids *C.int64_t, length C.size_t) C.int {
	return markOps(handle, ids, length, func(e *syncengine.Engine, ids []int64) error { return e.MarkPushed(ids) })
}

// sync_mark_ops_acked transitions ids to 'acked'. 0 on success.
//
//export sync_mark_ops_acked
func sync_mark_ops_acked(handle C.int32_t, ids *C.int64_t, length C.size_t) C.int {
	return markOps(handle, ids, length, func(e *syncengine.Engine, ids []int64) error { return e.MarkAcked(ids) })
}

func markOps(handle C.int32_t, ids *C.int64_t, length C.size_t, fn func(*syncengine.Engine, []int64) error) C.int {
	h := lookup(int32(handle))
	if h == nil {
		return 2
	}
	n := int(length)
	if n > 0 && ids == nil {
		return 3
	}
	slice := unsafe.Slice((*int64)(unsafe.Pointer(ids)), n)
	goIDs := make([]int64, n)
	copy(goIDs, slice)
	if err := fn(h.engine, goIDs); err != nil {
		setError(h, int32(syncengine.CodeOf(err)), err.Error())
		return 1
	}
	return 0
}

// sync_apply_remote_ops_json decodes a JSON array of remote ops and
// applies them via a no-op domain applier, recording idempotency
// markers only. Real hosts should use the Go API's ApplyBatch directly
// with a domain-aware Applier; this export exists for hosts that can
// only reach the FFI surface and handle domain writes on their own side
// of the call. Returns 0 on success, non-zero otherwise.
//
//export sync_apply_remote_ops_json
func sync_apply_remote_ops_json(handle C.int32_t, opsJSON *C.char) C.int {
	h := lookup(int32(handle))
	if h == nil {
		return 2
	}
	if opsJSON == nil {
		return 3
	}
	var ops []syncengine.RemoteOp
	if err := json.Unmarshal([]byte(C.GoString(opsJSON)), &ops); err != nil {
		setError(h, int32(syncengine.CodeEncoding), err.Error())
		return 4
	}
	noop := syncengine.ApplierFunc(func(*syncengine.Tx, syncengine.RemoteOp) error { return nil })
	if _, err := h.engine.ApplyBatch(ops, noop); err != nil {
		setError(h, int32(syncengine.CodeOf(err)), err.Error())
		if syncengine.IsState(err) || syncengine.IsHost(err) {
			return 3
		}
		return 1
	}
	return 0
}

// sync_get_remote_cursor returns the stored cursor, or an empty string
// if none is set, or NULL on failure.
//
//export sync_get_remote_cursor
func sync_get_remote_cursor(handle C.int32_t) *C.char {
	h := lookup(int32(handle))
	if h == nil {
		return nil
	}
	cursor, err := h.engine.GetRemoteCursor()
	if err != nil {
		setError(h, int32(syncengine.CodeOf(err)), err.Error())
		return nil
	}
	if cursor == nil {
		return cgoString("")
	}
	return cgoString(*cursor)
}

// sync_set_remote_cursor persists cursor. 0 on success.
//
//export sync_set_remote_cursor
func sync_set_remote_cursor(handle C.int32_t, cursor *C.char) C.int {
	h := lookup(int32(handle))
	if h == nil {
		return 2
	}
	if cursor == nil {
		return 3
	}
	if err := h.engine.SetRemoteCursor(C.GoString(cursor)); err != nil {
		setError(h, int32(syncengine.CodeOf(err)), err.Error())
		return 1
	}
	return 0
}

// sync_run_migrations advances the schema to targetVersion. 0 on
// success.
//
//export sync_run_migrations
func sync_run_migrations(handle C.int32_t, targetVersion C.int) C.int {
	h := lookup(int32(handle))
	if h == nil {
		return 2
	}
	if err := h.engine.RunMigrations(int(targetVersion)); err != nil {
		setError(h, int32(syncengine.CodeOf(err)), err.Error())
		if syncengine.IsState(err) {
			return 3
		}
		return 1
	}
	return 0
}

// sync_last_error_message returns the message of the last failed call
// on handle, or an empty string if none. Caller must release it with
// sync_string_free.
//
//export sync_last_error_message
func sync_last_error_message(handle C.int32_t) *C.char {
	h := lookup(int32(handle))
	if h == nil {
		return cgoString("")
	}
	return cgoString(h.lastErr)
}

// sync_last_error_code returns the Code of the last failed call on
// handle, or 0 if none has occurred.
//
//export sync_last_error_code
func sync_last_error_code(handle C.int32_t) C.int32_t {
	h := lookup(int32(handle))
	if h == nil {
		return 0
	}
	return C.int32_t(h.lastCode)
}

// sync_string_free releases a string previously returned by this
// library.
//
//export sync_string_free
func sync_string_free(s *C.char) {
	if s == nil {
		return
	}
	C.free(unsafe.Pointer(s))
}

func optionalJSON(s *C.char) json.RawMessage {
	if s == nil {
		return nil
	}
	return json.RawMessage(C.GoString(s))
}
