package syncengine

import "encoding/json"

// ShouldOverwrite reports whether localHLC is strictly newer than
// remoteHLC — i.e. the local row should NOT be overwritten by the remote
// one. Callers test the negation to decide whether to apply the remote
// value. Grounded on original_source/src/merge.rs::should_overwrite.
func ShouldOverwrite(localHLC, remoteHLC string) bool {
	return compareHLC(localHLC, remoteHLC) > 0
}

// LWWMerge implements the last-writer-wins merge helper.
//
// When changedFields is nil, the result is a clone of remoteRow. Otherwise
// the result is a clone of localRow with each named field overwritten by
// the same-named field from remoteRow, when present there. Behavior is
// undefined for non-object JSON roots — such inputs are returned
// unchanged (the local value), matching
// original_source/src/merge.rs::lww_merge_row's documented fallback.
func LWWMerge(localRow, remoteRow json.RawMessage, changedFields []string) json.RawMessage {
	if changedFields == nil {
		if len(remoteRow) == 0 {
			return remoteRow
		}
		out := make(json.RawMessage, len(remoteRow))
		copy(out, remoteRow)
		return out
	}

	var local, remote map[string]any
	if err := json.Unmarshal(localRow, &local); err != nil || local == nil {
		return localRow
	}
	if err := json.Unmarshal(remoteRow, &remote); err != nil || remote == nil {
		return localRow
	}

	for _, field := range changedFields {
		if v, ok := remote[field]; ok {
			local[field] = v
		}
	}

	merged, err := json.Marshal(local)
	if err != nil {
		return localRow
	}
	return merged
}
