package service

import "mapchat/internal/mapview"

type SlotView struct {
	Index   int    `json:"index"`
	Enabled bool   `json:"enabled"`
	Filled  bool   `json:"filled"`
	Name    string `json:"name,omitempty"`
	Bytes   int    `json:"bytes,omitempty"`
}

// Snapshot is a read-only view of the session for the page.
type Snapshot struct {
	SessionID           string           `json:"session_id"`
	Phase               Phase            `json:"phase"`
	FirstMessagePending bool             `json:"first_message_pending"`
	SearchMode          bool             `json:"search_mode"`
	Locked              bool             `json:"locked"`
	InFlight            bool             `json:"in_flight"`
	Slots               []SlotView       `json:"slots"`
	Map                 *mapview.Surface `json:"map,omitempty"`
}

func (s *ChatSession) Snapshot() Snapshot {
	inFlight := s.sending.Load()

	s.mu.Lock()
	defer s.mu.Unlock()

	attachments := s.state.Attachments()
	slots := make([]SlotView, attachments.Size())
	for i := range slots {
		slots[i] = SlotView{
			Index:   i,
			Enabled: !s.state.Locked() && attachments.IsSlotEnabled(i),
			Filled:  attachments.IsSlotFilled(i),
		}
		if a, ok := attachments.Slot(i); ok {
			slots[i].Name = a.Name
			slots[i].Bytes = len(a.Content)
		}
	}

	return Snapshot{
		SessionID:           s.id,
		Phase:               s.phase(),
		FirstMessagePending: s.state.FirstMessagePending(),
		SearchMode:          s.state.SearchModeEnabled(),
		Locked:              s.state.Locked(),
		InFlight:            inFlight,
		Slots:               slots,
		Map:                 s.viewer.Current(),
	}
}
