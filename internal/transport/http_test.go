package transport

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	syncengine "github.com/marcus/syncengine"
)

func TestHTTPClient_PushSignsAndDecodes(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header
		gotBody, _ = io.ReadAll(r.Body)
		json.NewEncoder(w).Encode(pushResponse{Accepted: []int64{1, 2}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "s3cret")
	accepted, err := c.Push([]syncengine.Change{{ChangeID: 1}, {ChangeID: 2}})
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if len(accepted) != 2 || accepted[0] != 1 || accepted[1] != 2 {
		t.Fatalf("unexpected accepted ids: %v", accepted)
	}

	sig := gotHeaders.Get("X-Signature")
	if !strings.HasPrefix(sig, "sha256=") {
		t.Fatalf("missing or malformed signature: %q", sig)
	}
	ts := gotHeaders.Get("X-Timestamp")
	if ts == "" {
		t.Fatalf("missing X-Timestamp header")
	}

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(gotBody)
	want := "sha256=" + hex.EncodeToString(mac.Sum(nil))
	if sig != want {
		t.Fatalf("signature mismatch: got %s want %s", sig, want)
	}
}

func TestHTTPClient_PullEncodesCursor(t *testing.T) {
	var gotQuery string
	newCursor := "c2"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(pullResponse{
			Ops:       []syncengine.RemoteOp{{RemoteID: "r1"}},
			NewCursor: &newCursor,
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	cursor := "c1 with space"
	result, err := c.Pull(&cursor)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if gotQuery != "cursor=c1+with+space" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if len(result.Ops) != 1 || result.Ops[0].RemoteID != "r1" {
		t.Fatalf("unexpected ops: %+v", result.Ops)
	}
	if result.NewCursor == nil || *result.NewCursor != "c2" {
		t.Fatalf("unexpected cursor: %v", result.NewCursor)
	}
}

func TestHTTPClient_PullNilCursorOmitsQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(pullResponse{})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	if _, err := c.Pull(nil); err != nil {
		t.Fatalf("pull: %v", err)
	}
	if gotQuery != "" {
		t.Fatalf("expected no query string, got %q", gotQuery)
	}
}

func TestHTTPClient_ServerErrorSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	if _, err := c.Push(nil); err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("expected status 500 error, got %v", err)
	}
}
