package dispatch

import (
	"sort"

	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/internal/geo"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

// Candidate is a delivery agent considered for an order.
type Candidate struct {
	AgentID  uuid.UUID
	Position types.GeoPoint
	Workload int
}

// Selection is the winning candidate. DistanceKm is the pickup distance
// rounded to two decimals.
type Selection struct {
	AgentID    uuid.UUID
	DistanceKm float64
	Workload   int
}

// Select picks the best candidate within maxRadiusKm of the pickup point.
// Candidates are ranked by workload, then pickup distance, then agent id,
// all ascending. The bool is false when no candidate is in range.
func Select(pickup types.GeoPoint, candidates []Candidate, maxRadiusKm float64) (Selection, bool) {
	type ranked struct {
		candidate Candidate
		distance  float64
	}

	eligible := make([]ranked, 0, len(candidates))
	for _, candidate := range candidates {
		distance := geo.DistanceKm(pickup, candidate.Position)
		if distance > maxRadiusKm {
			continue
		}
		eligible = append(eligible, ranked{candidate: candidate, distance: distance})
	}
	if len(eligible) == 0 {
		return Selection{}, false
	}

	sort.Slice(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.candidate.Workload != b.candidate.Workload {
			return a.candidate.Workload < b.candidate.Workload
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.candidate.AgentID.String() < b.candidate.AgentID.String()
	})

	winner := eligible[0]
	return Selection{
		AgentID:    winner.candidate.AgentID,
		DistanceKm: geo.RoundKm(winner.distance),
		Workload:   winner.candidate.Workload,
	}, true
}
