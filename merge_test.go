package syncengine

import (
	"encoding/json"
	"testing"
)

// TestShouldOverwrite_S6 reproduces spec.md §8 scenario S6.
func TestShouldOverwrite_S6(t *testing.T) {
	cases := []struct {
		local, remote string
		want          bool
	}{
		{"1000-0-A", "1001-0-B", false}, // remote strictly newer
		{"1001-0-B", "1000-0-A", true},  // local strictly newer
		{"1000-5-A", "1000-5-A", false}, // equal: not strictly newer
		{"1000-0-B", "1000-0-A", true},  // same ms/ctr, origin breaks the tie
	}
	for _, c := range cases {
		got := ShouldOverwrite(c.local, c.remote)
		if got != c.want {
			t.Errorf("ShouldOverwrite(%q, %q) = %v, want %v", c.local, c.remote, got, c.want)
		}
	}
}

func TestLWWMerge_NilChangedFieldsClonesRemote(t *testing.T) {
	local := rawObj(t, map[string]any{"id": "t1", "name": "old"})
	remote := rawObj(t, map[string]any{"id": "t1", "name": "new"})

	merged := LWWMerge(local, remote, nil)

	var got map[string]any
	if err := json.Unmarshal(merged, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["name"] != "new" {
		t.Fatalf("expected full clone of remote, got %v", got)
	}
}

func TestLWWMerge_SelectiveFieldMerge(t *testing.T) {
	local := rawObj(t, map[string]any{"id": "t1", "name": "old", "notes": "keep me"})
	remote := rawObj(t, map[string]any{"id": "t1", "name": "new", "notes": "discard me"})

	merged := LWWMerge(local, remote, []string{"name"})

	var got map[string]any
	if err := json.Unmarshal(merged, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["name"] != "new" {
		t.Fatalf("expected name overwritten from remote, got %v", got["name"])
	}
	if got["notes"] != "keep me" {
		t.Fatalf("expected notes preserved from local, got %v", got["notes"])
	}
}

func TestLWWMerge_FieldAbsentFromRemoteLeavesLocalUnchanged(t *testing.T) {
	local := rawObj(t, map[string]any{"id": "t1", "name": "old"})
	remote := rawObj(t, map[string]any{"id": "t1"})

	merged := LWWMerge(local, remote, []string{"name"})

	var got map[string]any
	json.Unmarshal(merged, &got)
	if got["name"] != "old" {
		t.Fatalf("expected name left untouched when absent from remote, got %v", got["name"])
	}
}

func TestLWWMerge_MalformedLocalFallsBackUnchanged(t *testing.T) {
	local := json.RawMessage(`not json`)
	remote := rawObj(t, map[string]any{"id": "t1"})

	merged := LWWMerge(local, remote, []string{"id"})
	if string(merged) != string(local) {
		t.Fatalf("expected malformed local input returned unchanged, got %q", merged)
	}
}
