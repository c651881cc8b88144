package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"mapchat/internal/mapview"
	"mapchat/internal/model"
	"mapchat/internal/render"
	"mapchat/internal/session"
	"mapchat/internal/transport"
	"mapchat/pkg/logger"
)

type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseReadyFirst Phase = "ready_first"
	PhaseActive     Phase = "active"
)

// ChatSession drives one conversation: it validates input, decides what
// travels with each request, and routes replies to the renderer and the
// map viewer. Only one send may be in flight at a time.
type ChatSession struct {
	transport transport.ChatTransport
	viewer    *mapview.Viewer
	decoder   FileDecoder
	inflight  *semaphore.Weighted
	sending   atomic.Bool

	mu         sync.Mutex
	id         string
	generation uint64
	state      *session.State
	// set while the first message is on the wire; its metadata is frozen
	dispatching bool
}

func NewChatSession(tr transport.ChatTransport, viewer *mapview.Viewer, decoder FileDecoder, slots int) *ChatSession {
	return &ChatSession{
		transport: tr,
		viewer:    viewer,
		decoder:   decoder,
		inflight:  semaphore.NewWeighted(1),
		id:        uuid.New().String(),
		state:     session.NewState(slots),
	}
}

func (s *ChatSession) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// log must be called with mu held.
func (s *ChatSession) log() *logrus.Entry {
	return logger.WithFields(logrus.Fields{"session_id": s.id})
}

// AttachFile decodes r and stores it in slot index.
func (s *ChatSession) AttachFile(ctx context.Context, index int, name string, r io.Reader) (model.Attachment, error) {
	if s.isLocked() {
		return model.Attachment{}, ErrLocked
	}

	content, err := s.decoder.Decode(ctx, name, r)
	if err != nil {
		if !errors.Is(err, ErrDecodeFailed) {
			err = fmt.Errorf("%w: %s: %v", ErrDecodeFailed, name, err)
		}
		return model.Attachment{}, err
	}

	attachment := model.Attachment{Name: name, Content: content}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the first message may have gone out while we were decoding
	if s.state.Locked() {
		return model.Attachment{}, ErrLocked
	}
	if s.dispatching {
		return model.Attachment{}, ErrBusy
	}
	if err := s.state.Attachments().SetSlot(index, attachment); err != nil {
		if errors.Is(err, session.ErrOutOfOrder) {
			return model.Attachment{}, fmt.Errorf("%w: %w", ErrSlotOrder, err)
		}
		return model.Attachment{}, err
	}

	s.log().WithFields(logrus.Fields{"slot": index, "file": name, "bytes": len(content)}).Info("file attached")
	return attachment, nil
}

// ClearSlot empties slot index and every later slot.
func (s *ChatSession) ClearSlot(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Locked() {
		return ErrLocked
	}
	if s.dispatching {
		return ErrBusy
	}
	return s.state.Attachments().ClearSlot(index)
}

// SetSearchMode reports whether the flag was applied; it is ignored once
// the first message has been dispatched.
func (s *ChatSession) SetSearchMode(enabled bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dispatching {
		s.log().Debug("search mode change ignored while the first message is in flight")
		return false
	}
	applied := s.state.SetSearchMode(enabled)
	if !applied {
		s.log().Debug("search mode change ignored after first message")
	}
	return applied
}

// SendMessage sends userInput and returns the events to display. On failure
// the events hold a single agent message describing the error, and the
// session state is left as it was so the user can simply try again.
func (s *ChatSession) SendMessage(ctx context.Context, userInput string) ([]model.DisplayEvent, error) {
	message := strings.TrimSpace(userInput)
	if message == "" {
		return fail(ErrEmptyInput)
	}

	if !s.inflight.TryAcquire(1) {
		logger.WithFields(logrus.Fields{"session_id": s.ID()}).Warn("send rejected: previous message still in flight")
		return fail(ErrBusy)
	}
	defer s.inflight.Release(1)
	s.sending.Store(true)
	defer s.sending.Store(false)

	s.mu.Lock()
	if s.state.FirstMessagePending() && !s.state.Attachments().Ready() {
		s.mu.Unlock()
		return fail(ErrNoAttachment)
	}
	req := s.state.BuildRequest(message)
	req.SessionID = s.id
	generation := s.generation
	entry := s.log()
	s.dispatching = req.IsFirstMessage()
	s.mu.Unlock()

	entry.WithFields(logrus.Fields{"first": req.IsFirstMessage(), "attachments": len(req.Attachments)}).Debug("sending message")

	resp, err := s.transport.Send(ctx, req)
	if err != nil {
		s.endDispatch(generation)
		entry.Warnf("send failed: %v", err)
		return fail(err)
	}

	events := render.Render(resp)

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		entry.Info("session was reset while the message was in flight, reply not applied")
		return events, nil
	}

	s.dispatching = false
	if req.IsFirstMessage() {
		s.state.CommitFirstMessage()
		entry.Info("first message committed, attachments locked")
	}

	if resp.MapHTML != nil {
		if _, err := s.viewer.ShowMap(*resp.MapHTML); err != nil {
			entry.Errorf("show map: %v", err)
			events = append(events, render.Failure(err))
		}
	}

	return events, nil
}

// Reset returns the session to its initial state and drops the map.
func (s *ChatSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Reset()
	s.dispatching = false
	s.generation++
	s.id = uuid.New().String()
	s.viewer.Clear()

	if r, ok := s.transport.(transport.Resetter); ok {
		r.Reset()
	}

	s.log().Info("session reset")
}

// Close releases the map surface.
func (s *ChatSession) Close() {
	s.viewer.Clear()
}

func (s *ChatSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase()
}

func (s *ChatSession) phase() Phase {
	switch {
	case s.state.Locked():
		return PhaseActive
	case s.state.Attachments().Ready():
		return PhaseReadyFirst
	default:
		return PhaseIdle
	}
}

// Map returns the visible map surface, nil when none.
func (s *ChatSession) Map() *mapview.Surface {
	return s.viewer.Current()
}

// Viewer exposes the map viewer for serving surface documents.
func (s *ChatSession) Viewer() *mapview.Viewer {
	return s.viewer
}

// endDispatch unfreezes the first-message metadata after a failed send so
// the user can change it and retry. A reset in the meantime already did.
func (s *ChatSession) endDispatch(generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if generation == s.generation {
		s.dispatching = false
	}
}

func (s *ChatSession) isLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Locked()
}

func fail(err error) ([]model.DisplayEvent, error) {
	return []model.DisplayEvent{render.Failure(err)}, err
}
