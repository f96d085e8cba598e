package tracking

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/pkg/types"
)

func TestHubBroadcastReachesAllSubscribers(t *testing.T) {
	hub := NewHub(4, nil)
	subA := hub.Subscribe()
	subB := hub.Subscribe()
	defer subA.Close()
	defer subB.Close()

	agentID := uuid.New()
	event := Event{AgentID: agentID, Coordinate: types.GeoPoint{Lat: 1, Lng: 2}, ReportedAt: time.Now()}
	hub.Publish(event)

	for _, sub := range []*Subscription{subA, subB} {
		select {
		case got := <-sub.Events():
			if got.AgentID != agentID {
				t.Fatalf("unexpected event %+v", got)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber did not receive event")
		}
	}
}

func TestHubFilterByAgent(t *testing.T) {
	hub := NewHub(4, nil)
	wanted := uuid.New()
	other := uuid.New()

	sub := hub.Subscribe(wanted)
	defer sub.Close()

	hub.Publish(Event{AgentID: other, Coordinate: types.GeoPoint{Lat: 1, Lng: 1}})
	hub.Publish(Event{AgentID: wanted, Coordinate: types.GeoPoint{Lat: 2, Lng: 2}})

	select {
	case got := <-sub.Events():
		if got.AgentID != wanted {
			t.Fatalf("filter leaked event for %s", got.AgentID)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected filtered event")
	}

	select {
	case got := <-sub.Events():
		t.Fatalf("unexpected extra event %+v", got)
	default:
	}
}

func TestHubPerAgentOrderingPreserved(t *testing.T) {
	hub := NewHub(16, nil)
	sub := hub.Subscribe()
	defer sub.Close()

	agentID := uuid.New()
	for i := 0; i < 10; i++ {
		hub.Publish(Event{AgentID: agentID, Coordinate: types.GeoPoint{Lat: float64(i), Lng: 0}})
	}

	for i := 0; i < 10; i++ {
		select {
		case got := <-sub.Events():
			if got.Coordinate.Lat != float64(i) {
				t.Fatalf("out of order delivery: expected lat %d, got %v", i, got.Coordinate.Lat)
			}
		case <-time.After(time.Second):
			t.Fatalf("missing event %d", i)
		}
	}
}

func TestHubDropsOldestWhenBufferFull(t *testing.T) {
	hub := NewHub(2, nil)
	sub := hub.Subscribe()
	defer sub.Close()

	agentID := uuid.New()
	for i := 0; i < 5; i++ {
		hub.Publish(Event{AgentID: agentID, Coordinate: types.GeoPoint{Lat: float64(i), Lng: 0}})
	}

	// Buffer holds two entries; the oldest three were evicted.
	var got []float64
	for i := 0; i < 2; i++ {
		select {
		case event := <-sub.Events():
			got = append(got, event.Coordinate.Lat)
		case <-time.After(time.Second):
			t.Fatalf("expected buffered event %d", i)
		}
	}
	if got[0] != 3 || got[1] != 4 {
		t.Fatalf("expected newest two events [3 4], got %v", got)
	}
}

func TestHubSlowSubscriberDoesNotBlockOthers(t *testing.T) {
	hub := NewHub(1, nil)
	slow := hub.Subscribe()
	fast := hub.Subscribe()
	defer slow.Close()
	defer fast.Close()

	agentID := uuid.New()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(Event{AgentID: agentID, Coordinate: types.GeoPoint{Lat: float64(i), Lng: 0}})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("publisher blocked by slow subscriber")
	}

	select {
	case <-fast.Events():
	case <-time.After(time.Second):
		t.Fatalf("fast subscriber starved")
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(4, nil)
	sub := hub.Subscribe()
	if hub.SubscriberCount() != 1 {
		t.Fatalf("expected 1 subscriber")
	}

	sub.Close()
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected deregistration on close")
	}

	// Publishing after close must not panic or deliver.
	hub.Publish(Event{AgentID: uuid.New(), Coordinate: types.GeoPoint{Lat: 1, Lng: 1}})

	if _, open := <-sub.Events(); open {
		t.Fatalf("expected closed event channel")
	}
}
