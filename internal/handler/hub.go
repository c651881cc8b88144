package handler

import (
	"sync"

	"mapchat/internal/model"
)

// eventHub fans display events out to every connected page.
type eventHub struct {
	mu   sync.Mutex
	subs map[chan model.DisplayEvent]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subs: make(map[chan model.DisplayEvent]struct{})}
}

func (h *eventHub) subscribe() chan model.DisplayEvent {
	ch := make(chan model.DisplayEvent, 32)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	return ch
}

func (h *eventHub) unsubscribe(ch chan model.DisplayEvent) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// publish never blocks; a subscriber that falls behind loses events.
func (h *eventHub) publish(events ...model.DisplayEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
			}
		}
	}
}
