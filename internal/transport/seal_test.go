package transport

import (
	"encoding/json"
	"testing"
)

func TestSealFieldOpenFieldRoundTrip(t *testing.T) {
	salt := make([]byte, 32)
	client, err := NewSealedHTTPClient("http://example.invalid", "secret", "hunter2", salt)
	if err != nil {
		t.Fatalf("NewSealedHTTPClient: %v", err)
	}

	raw := json.RawMessage(`{"title":"buy milk"}`)
	sealed, err := client.sealField(raw)
	if err != nil {
		t.Fatalf("sealField: %v", err)
	}
	if string(sealed) == string(raw) {
		t.Fatal("sealed payload must not equal plaintext")
	}

	opened, err := client.openField(sealed)
	if err != nil {
		t.Fatalf("openField: %v", err)
	}
	if string(opened) != string(raw) {
		t.Fatalf("got %s, want %s", opened, raw)
	}
}

func TestSealFieldNoKeyIsNoop(t *testing.T) {
	client := NewHTTPClient("http://example.invalid", "secret")
	raw := json.RawMessage(`{"title":"buy milk"}`)

	sealed, err := client.sealField(raw)
	if err != nil {
		t.Fatalf("sealField: %v", err)
	}
	if string(sealed) != string(raw) {
		t.Fatal("expected sealField to be a no-op without a seal key")
	}
}

func TestOpenFieldPassesThroughUnsealedPayload(t *testing.T) {
	salt := make([]byte, 32)
	client, err := NewSealedHTTPClient("http://example.invalid", "secret", "hunter2", salt)
	if err != nil {
		t.Fatalf("NewSealedHTTPClient: %v", err)
	}

	raw := json.RawMessage(`{"title":"legacy unsealed row"}`)
	opened, err := client.openField(raw)
	if err != nil {
		t.Fatalf("openField: %v", err)
	}
	if string(opened) != string(raw) {
		t.Fatalf("expected passthrough for a non-sealed envelope, got %s", opened)
	}
}
