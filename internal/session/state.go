package session

import (
	"mapchat/internal/model"
)

// State tracks whether the first message of a session is still pending.
// Attachments and the search flag only travel with the first message; once
// it has been committed both are locked until Reset.
type State struct {
	firstMessagePending bool
	searchModeEnabled   bool
	attachments         *AttachmentSet
}

func NewState(slots int) *State {
	return &State{
		firstMessagePending: true,
		attachments:         NewAttachmentSet(slots),
	}
}

func (s *State) FirstMessagePending() bool {
	return s.firstMessagePending
}

func (s *State) SearchModeEnabled() bool {
	return s.searchModeEnabled
}

// Attachments exposes the slot set. Once Locked, the owner must stop
// mutating it until Reset.
func (s *State) Attachments() *AttachmentSet {
	return s.attachments
}

// BuildRequest shapes a request for userInput. It does not change state:
// a failed first send can be retried with its metadata intact.
func (s *State) BuildRequest(userInput string) *model.ChatRequest {
	req := &model.ChatRequest{UserInput: userInput}
	if s.firstMessagePending {
		req.Attachments = s.attachments.OrderedAttachments()
		req.SearchModeEnabled = model.Bool(s.searchModeEnabled)
	}
	return req
}

// CommitFirstMessage marks the first message as delivered. Idempotent.
func (s *State) CommitFirstMessage() {
	s.firstMessagePending = false
}

// SetSearchMode changes the search flag. It reports false and does nothing
// once the first message has been committed.
func (s *State) SetSearchMode(enabled bool) bool {
	if !s.firstMessagePending {
		return false
	}
	s.searchModeEnabled = enabled
	return true
}

// Locked reports whether attachments and search mode are frozen.
func (s *State) Locked() bool {
	return !s.firstMessagePending
}

func (s *State) Reset() {
	s.firstMessagePending = true
	s.searchModeEnabled = false
	s.attachments.Reset()
}
