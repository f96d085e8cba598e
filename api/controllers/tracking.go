package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/api/responses"
	"github.com/quickbites/dispatch-backend/api/validators"
	"github.com/quickbites/dispatch-backend/internal/tracking"
	pkgerrors "github.com/quickbites/dispatch-backend/pkg/errors"
	"github.com/quickbites/dispatch-backend/pkg/logger"
	"github.com/quickbites/dispatch-backend/pkg/types"
)

type locationReportRequest struct {
	Lat        float64    `json:"lat"`
	Lng        float64    `json:"lng"`
	ReportedAt *time.Time `json:"reported_at,omitempty"`
}

// locationEventPayload is the flat shape browser clients consume. The lat
// and lng field names are fixed at this boundary.
type locationEventPayload struct {
	AgentID    uuid.UUID `json:"agentId"`
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	ReportedAt time.Time `json:"reportedAt"`
}

// LocationReport records one agent position update.
func LocationReport(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req locationReportRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reportedAt := time.Time{}
		if req.ReportedAt != nil {
			reportedAt = *req.ReportedAt
		}

		coord := types.GeoPoint{Lat: req.Lat, Lng: req.Lng}
		if err := svc.Report(r.Context(), agentID, coord, reportedAt); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		position, _ := svc.Position(agentID)
		responses.WriteSuccessStatus(w, http.StatusAccepted, position)
	}
}

// TrackingPositions returns the current position snapshot.
func TrackingPositions(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"positions": svc.Snapshot()})
	}
}

// AgentPosition returns the last known position for one agent.
func AgentPosition(svc *tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		position, ok := svc.Position(agentID)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "no position reported"))
			return
		}
		responses.WriteSuccess(w, position)
	}
}

// TrackingStream pushes live position updates over server-sent events. The
// optional agent_ids query param narrows the stream to specific agents.
func TrackingStream(svc *tracking.Service, heartbeat time.Duration, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		agentIDs, err := parseAgentIDsFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sub := svc.Subscribe(agentIDs...)
		defer sub.Close()

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		if heartbeat <= 0 {
			heartbeat = 15 * time.Second
		}
		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
				flusher.Flush()
			case event, open := <-sub.Events():
				if !open {
					return
				}
				payload, err := json.Marshal(locationEventPayload{
					AgentID:    event.AgentID,
					Lat:        event.Coordinate.Lat,
					Lng:        event.Coordinate.Lng,
					ReportedAt: event.ReportedAt,
				})
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: position\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}

func parseAgentIDsFilter(r *http.Request) ([]uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("agent_ids"))
	if raw == "" {
		return nil, nil
	}
	var ids []uuid.UUID
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := uuid.Parse(part)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid agent_ids filter")
		}
		ids = append(ids, id)
	}
	return ids, nil
}
