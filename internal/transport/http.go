package transport

import (
	"context"
	"net/http"

	"mapchat/internal/model"
	"mapchat/pkg/logger"
)

// HTTPTransport speaks the single-endpoint protocol: every turn is a
// POST /api/chat, and the first one carries attachments and the search flag.
type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{baseURL: baseURL, client: client}
}

func (t *HTTPTransport) Send(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	logger.Debugf("POST /api/chat session=%s first=%v attachments=%d", req.SessionID, req.IsFirstMessage(), len(req.Attachments))

	var resp model.ChatResponse
	if err := postJSON(ctx, t.client, endpoint(t.baseURL, "/api/chat"), req.SessionID, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
