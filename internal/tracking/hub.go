package tracking

import (
	"sync"

	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/pkg/metrics"
)

const defaultSubscriberBuffer = 32

// Event is a single position update fanned out to subscribers.
type Event = AgentPosition

// Subscription is a registered hub listener. Events arrive on C; Close
// deregisters the subscription and releases the channel.
type Subscription struct {
	hub    *Hub
	sub    *subscriber
	closed sync.Once
}

type subscriber struct {
	mu     sync.Mutex
	ch     chan Event
	filter map[uuid.UUID]struct{}
	done   bool
}

// Hub fans position updates out to live subscribers. Each subscriber owns a
// bounded queue; when it is full the oldest buffered event is dropped so
// slow consumers never block producers or each other. The hub lock is only
// held to copy the subscriber set, never during delivery.
type Hub struct {
	mu      sync.Mutex
	subs    map[*subscriber]struct{}
	buffer  int
	metrics *metrics.DispatchMetrics
}

// NewHub builds a hub with the given per-subscriber buffer size.
func NewHub(buffer int, m *metrics.DispatchMetrics) *Hub {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Hub{
		subs:    make(map[*subscriber]struct{}),
		buffer:  buffer,
		metrics: m,
	}
}

// Subscribe registers a listener. An empty filter receives every agent;
// otherwise only the listed agent ids are delivered.
func (h *Hub) Subscribe(agentIDs ...uuid.UUID) *Subscription {
	sub := &subscriber{ch: make(chan Event, h.buffer)}
	if len(agentIDs) > 0 {
		sub.filter = make(map[uuid.UUID]struct{}, len(agentIDs))
		for _, id := range agentIDs {
			sub.filter[id] = struct{}{}
		}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	h.metrics.SubscriberAdded()

	return &Subscription{hub: h, sub: sub}
}

// Publish delivers the event to every matching subscriber.
func (h *Hub) Publish(event Event) {
	h.mu.Lock()
	targets := make([]*subscriber, 0, len(h.subs))
	for sub := range h.subs {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		if !sub.wants(event.AgentID) {
			continue
		}
		if dropped := sub.offer(event); dropped {
			h.metrics.IncDroppedEvent()
		}
	}
}

// SubscriberCount reports the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Events exposes the subscription's delivery channel.
func (s *Subscription) Events() <-chan Event {
	return s.sub.ch
}

// Close deregisters the subscription. The channel is closed once no
// delivery is in flight.
func (s *Subscription) Close() {
	s.closed.Do(func() {
		s.hub.mu.Lock()
		delete(s.hub.subs, s.sub)
		s.hub.mu.Unlock()
		s.hub.metrics.SubscriberRemoved()

		s.sub.mu.Lock()
		s.sub.done = true
		close(s.sub.ch)
		s.sub.mu.Unlock()
	})
}

func (s *subscriber) wants(agentID uuid.UUID) bool {
	if s.filter == nil {
		return true
	}
	_, ok := s.filter[agentID]
	return ok
}

// offer enqueues the event, evicting the oldest buffered event when the
// queue is full. Returns true when an event was discarded.
func (s *subscriber) offer(event Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return false
	}

	select {
	case s.ch <- event:
		return false
	default:
	}

	dropped := false
	select {
	case <-s.ch:
		dropped = true
	default:
	}
	select {
	case s.ch <- event:
	default:
		dropped = true
	}
	return dropped
}
