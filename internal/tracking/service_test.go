package tracking

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/quickbites/dispatch-backend/pkg/db/models"
	"github.com/quickbites/dispatch-backend/pkg/enums"
	pkgerrors "github.com/quickbites/dispatch-backend/pkg/errors"
	"github.com/quickbites/dispatch-backend/pkg/logger"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

type stubAgentDirectory struct {
	agents        map[uuid.UUID]*models.Agent
	locationCalls int
}

func (s *stubAgentDirectory) FindAgent(_ context.Context, agentID uuid.UUID) (*models.Agent, error) {
	agent, ok := s.agents[agentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return agent, nil
}

func (s *stubAgentDirectory) UpdateAgentLocation(_ context.Context, agentID uuid.UUID, coord types.GeoPoint, reportedAt time.Time) error {
	s.locationCalls++
	if agent, ok := s.agents[agentID]; ok {
		agent.LastLocation = &coord
		agent.LastLocationAt = &reportedAt
	}
	return nil
}

func newTestService(t *testing.T, agents *stubAgentDirectory) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Store:  NewStore(),
		Hub:    NewHub(8, nil),
		Agents: agents,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func activeAgent() (*stubAgentDirectory, uuid.UUID) {
	agentID := uuid.New()
	return &stubAgentDirectory{agents: map[uuid.UUID]*models.Agent{
		agentID: {ID: agentID, Name: "Asha", Status: enums.AgentStatusActive},
	}}, agentID
}

func TestReportRejectsInvalidCoordinate(t *testing.T) {
	agents, agentID := activeAgent()
	svc := newTestService(t, agents)

	err := svc.Report(context.Background(), agentID, types.GeoPoint{Lat: 95, Lng: 10}, time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if agents.locationCalls != 0 {
		t.Fatalf("invalid report must not persist")
	}
	if len(svc.Snapshot()) != 0 {
		t.Fatalf("invalid report must not cache")
	}
}

func TestReportRejectsUnknownAgent(t *testing.T) {
	svc := newTestService(t, &stubAgentDirectory{agents: map[uuid.UUID]*models.Agent{}})

	err := svc.Report(context.Background(), uuid.New(), types.GeoPoint{Lat: 10, Lng: 10}, time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReportRejectsInactiveAgent(t *testing.T) {
	agentID := uuid.New()
	agents := &stubAgentDirectory{agents: map[uuid.UUID]*models.Agent{
		agentID: {ID: agentID, Status: enums.AgentStatusPending},
	}}
	svc := newTestService(t, agents)

	err := svc.Report(context.Background(), agentID, types.GeoPoint{Lat: 10, Lng: 10}, time.Now())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestReportCachesPersistsAndBroadcasts(t *testing.T) {
	agents, agentID := activeAgent()
	svc := newTestService(t, agents)

	sub := svc.Subscribe()
	defer sub.Close()

	coord := types.GeoPoint{Lat: 17.3850, Lng: 78.4867}
	reportedAt := time.Now().UTC()
	if err := svc.Report(context.Background(), agentID, coord, reportedAt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if agents.locationCalls != 1 {
		t.Fatalf("expected location persisted once, got %d", agents.locationCalls)
	}

	pos, ok := svc.Position(agentID)
	if !ok || pos.Coordinate != coord {
		t.Fatalf("expected cached position, got %+v ok=%v", pos, ok)
	}

	select {
	case event := <-sub.Events():
		if event.AgentID != agentID || event.Coordinate != coord {
			t.Fatalf("unexpected broadcast %+v", event)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected broadcast event")
	}
}

func TestPruneIntervalQuartersWindow(t *testing.T) {
	if got := pruneInterval(time.Minute); got != 15*time.Second {
		t.Fatalf("expected 15s interval, got %v", got)
	}
	if got := pruneInterval(2 * time.Millisecond); got != time.Millisecond {
		t.Fatalf("expected floor of 1ms, got %v", got)
	}
}

func TestPruneLoopEvictsStaleEntriesAndStops(t *testing.T) {
	agents, agentID := activeAgent()
	svc := newTestService(t, agents)
	svc.store.Upsert(agentID, types.GeoPoint{Lat: 1, Lng: 1}, time.Now().UTC().Add(-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.PruneLoop(ctx, 20*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for len(svc.Snapshot()) != 0 {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("stale entry was not pruned")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("prune loop did not stop on cancel")
	}
}

func TestPruneLoopDisabledWithoutWindow(t *testing.T) {
	agents, _ := activeAgent()
	svc := newTestService(t, agents)

	done := make(chan struct{})
	go func() {
		svc.PruneLoop(context.Background(), 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("prune loop must return immediately when disabled")
	}
}

func TestSnapshotSortedByAgentID(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	agents := &stubAgentDirectory{agents: map[uuid.UUID]*models.Agent{
		a: {ID: a, Status: enums.AgentStatusActive},
		b: {ID: b, Status: enums.AgentStatusActive},
	}}
	svc := newTestService(t, agents)

	ctx := context.Background()
	if err := svc.Report(ctx, b, types.GeoPoint{Lat: 2, Lng: 2}, time.Now()); err != nil {
		t.Fatalf("report b: %v", err)
	}
	if err := svc.Report(ctx, a, types.GeoPoint{Lat: 1, Lng: 1}, time.Now()); err != nil {
		t.Fatalf("report a: %v", err)
	}

	snap := svc.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(snap))
	}
	if snap[0].AgentID != a || snap[1].AgentID != b {
		t.Fatalf("expected sorted snapshot, got %v then %v", snap[0].AgentID, snap[1].AgentID)
	}
}
