package transport

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"mapchat/internal/model"
	"mapchat/pkg/logger"
)

// LegacyTransport speaks the two-endpoint protocol: the first turn goes to
// POST /api/start-chat and returns a chat id, later turns post that id to
// POST /api/chat.
type LegacyTransport struct {
	baseURL string
	client  *http.Client

	mu     sync.Mutex
	chatID string
}

func NewLegacyTransport(baseURL string, client *http.Client) *LegacyTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &LegacyTransport{baseURL: baseURL, client: client}
}

func (t *LegacyTransport) Send(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	if req.IsFirstMessage() {
		return t.start(ctx, req)
	}

	chatID := t.ChatID()
	if chatID == "" {
		return nil, errors.Wrap(ErrNetwork, "no chat started")
	}

	var resp model.ChatResponse
	body := model.ContinueChatRequest{ChatID: chatID, UserInput: req.UserInput}
	if err := postJSON(ctx, t.client, endpoint(t.baseURL, "/api/chat"), req.SessionID, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (t *LegacyTransport) start(ctx context.Context, req *model.ChatRequest) (*model.ChatResponse, error) {
	body := startBody(req)

	var resp model.StartChatResponse
	if err := postJSON(ctx, t.client, endpoint(t.baseURL, "/api/start-chat"), req.SessionID, body, &resp); err != nil {
		return nil, err
	}
	if resp.ChatID == "" {
		return nil, errors.Wrap(ErrDecode, "start-chat response has no chatId")
	}

	t.mu.Lock()
	t.chatID = resp.ChatID
	t.mu.Unlock()

	logger.Debugf("legacy chat started: chat_id=%s session=%s", resp.ChatID, req.SessionID)

	if resp.Response == nil {
		return &model.ChatResponse{}, nil
	}
	return resp.Response, nil
}

// startBody folds the ordered attachments into the single file the legacy
// endpoint accepts: slot 0 names it, later files follow under a header line.
func startBody(req *model.ChatRequest) model.StartChatRequest {
	body := model.StartChatRequest{UserInput: req.UserInput}
	if req.SearchModeEnabled != nil {
		body.UseAISearch = *req.SearchModeEnabled
	}
	if len(req.Attachments) == 0 {
		return body
	}

	body.FileName = req.Attachments[0].Name

	var content strings.Builder
	content.WriteString(req.Attachments[0].Content)
	for _, a := range req.Attachments[1:] {
		fmt.Fprintf(&content, "\n--- %s ---\n", a.Name)
		content.WriteString(a.Content)
	}
	body.FileContent = content.String()

	return body
}

// ChatID returns the id of the running chat, empty before the first turn.
func (t *LegacyTransport) ChatID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.chatID
}

func (t *LegacyTransport) Reset() {
	t.mu.Lock()
	t.chatID = ""
	t.mu.Unlock()
}
