package model

import "encoding/json"

// Attachment is a named piece of decoded text supplied before the first message.
type Attachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
// Attachments and SearchModeEnabled are only set on the first message of a
// session; nil means the field is omitted from the wire entirely.
type ChatRequest struct {
	UserInput         string       `json:"userInput"`
	Attachments       []Attachment `json:"attachments,omitempty"`
	SearchModeEnabled *bool        `json:"searchModeEnabled,omitempty"`

	SessionID string `json:"-"`
}

// IsFirstMessage reports whether the request carries first-message metadata.
func (r *ChatRequest) IsFirstMessage() bool {
	return r.Attachments != nil || r.SearchModeEnabled != nil
}

// MarshalJSON keeps a non-nil but empty attachment list on the wire;
// omitempty alone would drop it and make a first message look like a later one.
func (r ChatRequest) MarshalJSON() ([]byte, error) {
	type wire struct {
		UserInput         string        `json:"userInput"`
		Attachments       *[]Attachment `json:"attachments,omitempty"`
		SearchModeEnabled *bool         `json:"searchModeEnabled,omitempty"`
	}
	w := wire{UserInput: r.UserInput, SearchModeEnabled: r.SearchModeEnabled}
	if r.Attachments != nil {
		w.Attachments = &r.Attachments
	}
	return json.Marshal(w)
}

// StartChatRequest is the body of POST /api/start-chat (legacy protocol).
type StartChatRequest struct {
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent"`
	UserInput   string `json:"userInput"`
	UseAISearch bool   `json:"useAiSearch"`
}

// ContinueChatRequest is the body of POST /api/chat on the legacy protocol.
type ContinueChatRequest struct {
	ChatID    string `json:"chatId"`
	UserInput string `json:"userInput"`
}

// SendMessageRequest is what the host bridge accepts from the page.
type SendMessageRequest struct {
	UserInput string `json:"userInput"`
}

type SearchModeRequest struct {
	Enabled bool `json:"enabled"`
}
