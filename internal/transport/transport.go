// Package transport carries chat requests to the map-chat backend.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"mapchat/internal/model"
)

var (
	// ErrNetwork covers connectivity failures and non-2xx responses.
	ErrNetwork = errors.New("chat backend unreachable")
	// ErrDecode means the backend answered with something that is not the expected JSON.
	ErrDecode = errors.New("chat backend returned an invalid response")
)

const SessionHeader = "X-Chat-Session"

// maxErrorBody bounds how much of a failed response ends up in the error.
const maxErrorBody = 512

// ChatTransport sends one request and returns the parsed reply. It never
// retries and imposes no timeout of its own.
type ChatTransport interface {
	Send(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error)
}

// Resetter is implemented by transports that keep per-session state.
type Resetter interface {
	Reset()
}

// postJSON marshals body, posts it to url and decodes the reply into out.
func postJSON(ctx context.Context, client *http.Client, url, sessionID string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return errors.Wrapf(ErrNetwork, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(ErrNetwork, "post %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return errors.Wrapf(ErrNetwork, "post %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(ErrNetwork, "read response: %v", err)
	}

	// a JSON null or scalar would leave out untouched and hide a broken backend
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errors.Wrapf(ErrDecode, "expected a JSON object, got %q", truncate(string(trimmed), 64))
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return errors.Wrapf(ErrDecode, "%v", err)
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}
