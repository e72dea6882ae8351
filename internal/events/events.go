// Package events fans build progress out to interested parties: a per-build
// callback and any number of per-project subscribers.
package events

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/mrz1836/foundry/internal/clock"
	"github.com/mrz1836/foundry/internal/domain"
)

// subscriberBuffer is the channel depth per subscriber. Slow subscribers
// lose events rather than stalling the build.
const subscriberBuffer = 64

// Callback receives events synchronously on the emitting goroutine.
type Callback func(domain.Event)

// Emitter is the narrow interface the engine and autonomy loop emit through.
type Emitter interface {
	Emit(projectID string, kind domain.EventKind, agent, message string, fields map[string]any)
}

// Hub delivers events to subscribers keyed by project id.
type Hub struct {
	mu    sync.RWMutex
	subs  map[string]map[chan domain.Event]struct{}
	clock clock.Clock
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[string]map[chan domain.Event]struct{}{}, clock: clock.RealClock{}}
}

// Subscribe registers a subscriber for projectID. The returned function
// unsubscribes and closes the channel; it is safe to call more than once.
func (h *Hub) Subscribe(projectID string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, subscriberBuffer)
	h.mu.Lock()
	set := h.subs[projectID]
	if set == nil {
		set = map[chan domain.Event]struct{}{}
		h.subs[projectID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subs[projectID]; ok {
				delete(set, ch)
				if len(set) == 0 {
					delete(h.subs, projectID)
				}
			}
			close(ch)
			h.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber of its project without blocking.
func (h *Hub) Publish(ev domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.ProjectID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers returns the subscriber count for projectID.
func (h *Hub) Subscribers(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[projectID])
}

// Emit implements Emitter.
func (h *Hub) Emit(projectID string, kind domain.EventKind, agent, message string, fields map[string]any) {
	h.Publish(domain.Event{
		ProjectID: projectID,
		Kind:      kind,
		Agent:     agent,
		Message:   message,
		Fields:    fields,
		Time:      h.clock.Now().UTC(),
	})
}

// Fanout emits to a hub, a callback, and the logger.
type Fanout struct {
	Hub      *Hub
	Callback Callback
	Logger   zerolog.Logger
	Clock    clock.Clock
}

// Emit implements Emitter. A panicking callback is logged and swallowed so
// progress reporting never fails a build.
func (f *Fanout) Emit(projectID string, kind domain.EventKind, agent, message string, fields map[string]any) {
	now := time.Now
	if f.Clock != nil {
		now = f.Clock.Now
	}
	ev := domain.Event{
		ProjectID: projectID,
		Kind:      kind,
		Agent:     agent,
		Message:   message,
		Fields:    fields,
		Time:      now().UTC(),
	}

	f.Logger.Debug().
		Str("event", string(kind)).
		Str("agent", agent).
		Msg(message)

	if f.Hub != nil {
		f.Hub.Publish(ev)
	}
	if f.Callback != nil {
		f.deliver(ev)
	}
}

func (f *Fanout) deliver(ev domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			f.Logger.Warn().Interface("panic", r).Str("event", string(ev.Kind)).Msg("event callback panicked")
		}
	}()
	f.Callback(ev)
}

// Discard drops every event.
type Discard struct{}

// Emit implements Emitter.
func (Discard) Emit(string, domain.EventKind, string, string, map[string]any) {}

var (
	_ Emitter = (*Hub)(nil)
	_ Emitter = (*Fanout)(nil)
	_ Emitter = Discard{}
)
