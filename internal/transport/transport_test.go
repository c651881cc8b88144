package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mapchat/internal/config"
	"mapchat/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recorder is a fake backend that keeps every raw body it receives.
type recorder struct {
	mu      sync.Mutex
	bodies  []map[string]any
	headers []http.Header
}

func (r *recorder) capture(c *gin.Context) {
	raw, _ := io.ReadAll(c.Request.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, body)
	r.headers = append(r.headers, c.Request.Header.Clone())
}

func newBackend(t *testing.T, setup func(*gin.Engine)) *httptest.Server {
	t.Helper()
	router := gin.New()
	setup(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPTransport_FirstMessageShape(t *testing.T) {
	rec := &recorder{}
	server := newBackend(t, func(r *gin.Engine) {
		r.POST("/api/chat", func(c *gin.Context) {
			rec.capture(c)
			c.JSON(http.StatusOK, gin.H{"text": "Here is a plan", "mapHtml": "<html>map</html>"})
		})
	})

	tr := NewHTTPTransport(server.URL+"/", server.Client())
	resp, err := tr.Send(context.Background(), &model.ChatRequest{
		UserInput: "plan my trip",
		Attachments: []model.Attachment{
			{Name: "a.txt", Content: "A"},
			{Name: "b.txt", Content: "B"},
		},
		SearchModeEnabled: model.Bool(true),
		SessionID:         "s-1",
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Text)
	assert.Equal(t, "Here is a plan", *resp.Text)
	require.NotNil(t, resp.MapHTML)
	assert.Nil(t, resp.Followup)
	assert.Nil(t, resp.AdditionalText)

	require.Len(t, rec.bodies, 1)
	body := rec.bodies[0]
	assert.Equal(t, "plan my trip", body["userInput"])
	assert.Equal(t, true, body["searchModeEnabled"])
	assert.Equal(t, []any{
		map[string]any{"name": "a.txt", "content": "A"},
		map[string]any{"name": "b.txt", "content": "B"},
	}, body["attachments"])
	assert.NotContains(t, body, "SessionID")
	assert.Equal(t, "s-1", rec.headers[0].Get(SessionHeader))
}

func TestHTTPTransport_LaterMessageOmitsMetadata(t *testing.T) {
	rec := &recorder{}
	server := newBackend(t, func(r *gin.Engine) {
		r.POST("/api/chat", func(c *gin.Context) {
			rec.capture(c)
			c.JSON(http.StatusOK, gin.H{"followup": nil})
		})
	})

	tr := NewHTTPTransport(server.URL, server.Client())
	resp, err := tr.Send(context.Background(), &model.ChatRequest{UserInput: "next"})
	require.NoError(t, err)
	assert.Nil(t, resp.Followup)

	assert.Equal(t, map[string]any{"userInput": "next"}, rec.bodies[0])
}

func TestHTTPTransport_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler gin.HandlerFunc
		want    error
	}{
		{
			name:    "server error",
			handler: func(c *gin.Context) { c.JSON(http.StatusInternalServerError, gin.H{"detail": "boom"}) },
			want:    ErrNetwork,
		},
		{
			name:    "not found",
			handler: func(c *gin.Context) { c.String(http.StatusNotFound, "no such chat") },
			want:    ErrNetwork,
		},
		{
			name:    "html body",
			handler: func(c *gin.Context) { c.String(http.StatusOK, "<html>oops</html>") },
			want:    ErrDecode,
		},
		{
			name:    "json null",
			handler: func(c *gin.Context) { c.String(http.StatusOK, "null") },
			want:    ErrDecode,
		},
		{
			name:    "wrong field type",
			handler: func(c *gin.Context) { c.String(http.StatusOK, `{"text": 42}`) },
			want:    ErrDecode,
		},
		{
			name:    "truncated",
			handler: func(c *gin.Context) { c.String(http.StatusOK, `{"text": "a`) },
			want:    ErrDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newBackend(t, func(r *gin.Engine) { r.POST("/api/chat", tt.handler) })

			_, err := NewHTTPTransport(server.URL, server.Client()).
				Send(context.Background(), &model.ChatRequest{UserInput: "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPTransport_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewHTTPTransport(url, nil).Send(context.Background(), &model.ChatRequest{UserInput: "x"})
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestLegacyTransport_StartThenContinue(t *testing.T) {
	rec := &recorder{}
	server := newBackend(t, func(r *gin.Engine) {
		r.POST("/api/start-chat", func(c *gin.Context) {
			rec.capture(c)
			c.JSON(http.StatusOK, gin.H{"chatId": "chat-42", "response": gin.H{"text": "started"}})
		})
		r.POST("/api/chat", func(c *gin.Context) {
			rec.capture(c)
			c.JSON(http.StatusOK, gin.H{"text": "continued"})
		})
	})

	tr := NewLegacyTransport(server.URL, server.Client())

	resp, err := tr.Send(context.Background(), &model.ChatRequest{
		UserInput: "describe",
		Attachments: []model.Attachment{
			{Name: "points.csv", Content: "lat,lon"},
			{Name: "notes.txt", Content: "hello"},
		},
		SearchModeEnabled: model.Bool(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "started", *resp.Text)
	assert.Equal(t, "chat-42", tr.ChatID())

	resp, err = tr.Send(context.Background(), &model.ChatRequest{UserInput: "more"})
	require.NoError(t, err)
	assert.Equal(t, "continued", *resp.Text)

	require.Len(t, rec.bodies, 2)
	assert.Equal(t, map[string]any{
		"fileName":    "points.csv",
		"fileContent": "lat,lon\n--- notes.txt ---\nhello",
		"userInput":   "describe",
		"useAiSearch": true,
	}, rec.bodies[0])
	assert.Equal(t, map[string]any{"chatId": "chat-42", "userInput": "more"}, rec.bodies[1])
}

func TestLegacyTransport_ContinueWithoutStart(t *testing.T) {
	tr := NewLegacyTransport("http://127.0.0.1:0", nil)
	_, err := tr.Send(context.Background(), &model.ChatRequest{UserInput: "x"})
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestLegacyTransport_MissingChatID(t *testing.T) {
	server := newBackend(t, func(r *gin.Engine) {
		r.POST("/api/start-chat", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"response": gin.H{"text": "x"}})
		})
	})

	tr := NewLegacyTransport(server.URL, server.Client())
	_, err := tr.Send(context.Background(), &model.ChatRequest{
		UserInput:   "x",
		Attachments: []model.Attachment{{Name: "a", Content: "b"}},
	})
	assert.ErrorIs(t, err, ErrDecode)
	assert.Empty(t, tr.ChatID())
}

func TestLegacyTransport_Reset(t *testing.T) {
	server := newBackend(t, func(r *gin.Engine) {
		r.POST("/api/start-chat", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"chatId": "c1"})
		})
	})

	tr := NewLegacyTransport(server.URL, server.Client())
	resp, err := tr.Send(context.Background(), &model.ChatRequest{
		UserInput:   "x",
		Attachments: []model.Attachment{{Name: "a", Content: "b"}},
	})
	require.NoError(t, err)
	assert.Nil(t, resp.Text)

	var _ Resetter = tr
	tr.Reset()
	assert.Empty(t, tr.ChatID())
}

func TestNew(t *testing.T) {
	tr, err := New(config.BackendConfig{BaseURL: "http://x", Protocol: config.ProtocolChat})
	require.NoError(t, err)
	assert.IsType(t, &HTTPTransport{}, tr)

	tr, err = New(config.BackendConfig{BaseURL: "http://x", Protocol: config.ProtocolLegacy})
	require.NoError(t, err)
	assert.IsType(t, &LegacyTransport{}, tr)

	_, err = New(config.BackendConfig{Protocol: "grpc"})
	assert.Error(t, err)
}
