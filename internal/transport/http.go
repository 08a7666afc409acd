// Package transport provides a sample push/pull implementation over
// HTTP so a host can drive syncengine.SyncCycle against a real server
// instead of a mock. The sync engine itself never imports net/http —
// this is host code, grounded on the HMAC-signing pattern in
// internal/webhook, not part of the engine's core contract.
package transport

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	syncengine "github.com/marcus/syncengine"
)

// HTTPClient pushes and pulls changes against a remote sync endpoint,
// signing each request the way internal/webhook signs its payloads:
// HMAC-SHA256 over "{unix_ts}.{body}", carried in X-Signature alongside
// an X-Timestamp header.
type HTTPClient struct {
	BaseURL string
	Secret  string
	HTTP    *http.Client

	// sealKey, when set (via NewSealedHTTPClient), end-to-end encrypts
	// row payloads so the server at BaseURL never sees plaintext columns.
	sealKey []byte
}

// NewHTTPClient builds a client with a 10s request timeout, matching
// internal/webhook.Dispatch's budget.
func NewHTTPClient(baseURL, secret string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Secret:  secret,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

type pushRequest struct {
	Changes []syncengine.Change `json:"changes"`
}

type pushResponse struct {
	Accepted []int64 `json:"accepted"`
}

type pullResponse struct {
	Ops       []syncengine.RemoteOp `json:"ops"`
	NewCursor *string               `json:"new_cursor,omitempty"`
}

// Push implements syncengine.PushFunc against POST {BaseURL}/push.
func (c *HTTPClient) Push(changes []syncengine.Change) ([]int64, error) {
	if c.sealKey != nil {
		sealed := make([]syncengine.Change, len(changes))
		for i, ch := range changes {
			var err error
			if ch.Columns, err = c.sealField(ch.Columns); err != nil {
				return nil, err
			}
			if ch.NewRow, err = c.sealField(ch.NewRow); err != nil {
				return nil, err
			}
			if ch.OldRow, err = c.sealField(ch.OldRow); err != nil {
				return nil, err
			}
			sealed[i] = ch
		}
		changes = sealed
	}

	body, err := json.Marshal(pushRequest{Changes: changes})
	if err != nil {
		return nil, fmt.Errorf("marshal push request: %w", err)
	}

	var resp pushResponse
	if err := c.doSigned(http.MethodPost, c.BaseURL+"/push", body, &resp); err != nil {
		return nil, err
	}
	return resp.Accepted, nil
}

// Pull implements syncengine.PullFunc against GET {BaseURL}/pull?cursor=....
func (c *HTTPClient) Pull(cursor *string) (syncengine.PullResult, error) {
	endpoint := c.BaseURL + "/pull"
	if cursor != nil {
		endpoint += "?cursor=" + url.QueryEscape(*cursor)
	}

	var resp pullResponse
	if err := c.doSigned(http.MethodGet, endpoint, nil, &resp); err != nil {
		return syncengine.PullResult{}, err
	}

	if c.sealKey != nil {
		for i, op := range resp.Ops {
			var err error
			if op.Columns, err = c.openField(op.Columns); err != nil {
				return syncengine.PullResult{}, err
			}
			if op.NewRow, err = c.openField(op.NewRow); err != nil {
				return syncengine.PullResult{}, err
			}
			if op.OldRow, err = c.openField(op.OldRow); err != nil {
				return syncengine.PullResult{}, err
			}
			resp.Ops[i] = op
		}
	}

	return syncengine.PullResult{Ops: resp.Ops, NewCursor: resp.NewCursor}, nil
}

func (c *HTTPClient) doSigned(method, endpoint string, body []byte, out any) error {
	req, err := http.NewRequest(method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "synctool-transport/1")

	unixTS := fmt.Sprintf("%d", time.Now().Unix())
	req.Header.Set("X-Timestamp", unixTS)

	if c.Secret != "" {
		mac := hmac.New(sha256.New, []byte(c.Secret))
		mac.Write([]byte(unixTS))
		mac.Write([]byte("."))
		mac.Write(body)
		req.Header.Set("X-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: status %d", method, endpoint, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
