package transport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/marcus/syncengine/internal/crypto"
)

// sealedEnvelope is the wire shape a row payload takes once end-to-end
// encryption is enabled: the server only ever sees this, never the
// plaintext columns.
type sealedEnvelope struct {
	Sealed string `json:"sealed"`
}

// NewSealedHTTPClient builds an HTTPClient that encrypts every row
// payload (columns/new_row/old_row) with an Argon2id-derived AES-256-GCM
// key before it leaves the process, and decrypts on the way back in.
// salt must be the same 32 bytes on every peer sharing a project, so
// they all derive the same key from the same passphrase.
func NewSealedHTTPClient(baseURL, secret, passphrase string, salt []byte) (*HTTPClient, error) {
	key, err := crypto.DeriveKeyFromPassphraseWithSalt(passphrase, salt)
	if err != nil {
		return nil, fmt.Errorf("derive seal key: %w", err)
	}
	c := NewHTTPClient(baseURL, secret)
	c.sealKey = key
	return c, nil
}

func (c *HTTPClient) sealField(raw json.RawMessage) (json.RawMessage, error) {
	if c.sealKey == nil || raw == nil {
		return raw, nil
	}
	ciphertext, err := crypto.Encrypt(c.sealKey, raw)
	if err != nil {
		return nil, fmt.Errorf("seal payload: %w", err)
	}
	return json.Marshal(sealedEnvelope{Sealed: base64.StdEncoding.EncodeToString(ciphertext)})
}

func (c *HTTPClient) openField(raw json.RawMessage) (json.RawMessage, error) {
	if c.sealKey == nil || raw == nil {
		return raw, nil
	}
	var env sealedEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Sealed == "" {
		// Not a sealed envelope (e.g. seal was enabled after older
		// unsealed rows were already queued) — pass through as-is.
		return raw, nil
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.Sealed)
	if err != nil {
		return nil, fmt.Errorf("decode sealed payload: %w", err)
	}
	plaintext, err := crypto.Decrypt(c.sealKey, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("open payload: %w", err)
	}
	return plaintext, nil
}
