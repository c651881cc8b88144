package model

// ChatResponse is the backend reply. Every field is optional; a nil field
// (absent or JSON null) is not rendered.
type ChatResponse struct {
	Text           *string `json:"text,omitempty"`
	AdditionalText *string `json:"additionalText,omitempty"`
	Followup       *string `json:"followup,omitempty"`
	MapHTML        *string `json:"mapHtml,omitempty"`
}

// StartChatResponse is the legacy reply to POST /api/start-chat.
type StartChatResponse struct {
	ChatID   string        `json:"chatId"`
	Response *ChatResponse `json:"response"`
}

const RoleAgent = "agent"

// DisplayEvent is one rendered chat bubble.
// When Formatted is true, Lines holds Text split on newlines and the page
// must join them with explicit line breaks.
type DisplayEvent struct {
	Role      string   `json:"role"`
	Text      string   `json:"text"`
	Formatted bool     `json:"formatted"`
	Lines     []string `json:"lines,omitempty"`
}

// SendMessageResponse is what the host bridge returns for a message.
type SendMessageResponse struct {
	SessionID string         `json:"session_id"`
	Events    []DisplayEvent `json:"events"`
	Map       *MapView       `json:"map,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// MapView describes the visible map surface to the page.
type MapView struct {
	SurfaceID string `json:"surface_id,omitempty"`
	URL       string `json:"url,omitempty"`
	Embed     string `json:"embed"`
	Empty     bool   `json:"empty"`
}

// String returns a pointer to s, for building responses in code and tests.
func String(s string) *string {
	return &s
}

// Bool returns a pointer to b.
func Bool(b bool) *bool {
	return &b
}
