package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/quickbites/dispatch-backend/api/responses"
	"github.com/quickbites/dispatch-backend/api/validators"
	"github.com/quickbites/dispatch-backend/internal/agents"
	pkgerrors "github.com/quickbites/dispatch-backend/pkg/errors"
	"github.com/quickbites/dispatch-backend/pkg/logger"
)

type agentRegisterRequest struct {
	Name        string   `json:"name" validate:"required"`
	Phone       *string  `json:"phone,omitempty"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	VehicleType *string  `json:"vehicle_type,omitempty"`
	Zones       []string `json:"zones,omitempty"`
}

type agentModerationRequest struct {
	ActorUserID string `json:"actor_user_id,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

func (r agentModerationRequest) toInput(agentID uuid.UUID) (agents.ModerationInput, error) {
	input := agents.ModerationInput{AgentID: agentID, Reason: strings.TrimSpace(r.Reason)}
	if raw := strings.TrimSpace(r.ActorUserID); raw != "" {
		actorID, err := uuid.Parse(raw)
		if err != nil {
			return agents.ModerationInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor_user_id")
		}
		input.ActorUserID = actorID
	}
	return input, nil
}

// AgentRegister handles delivery agent sign up.
func AgentRegister(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req agentRegisterRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.Register(r.Context(), agents.RegisterInput{
			Name:        req.Name,
			Phone:       req.Phone,
			Email:       req.Email,
			VehicleType: req.VehicleType,
			Zones:       req.Zones,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, agent)
	}
}

// AgentDetail returns one agent by id.
func AgentDetail(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.Find(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, agent)
	}
}

// AdminAgentQueue lists agents awaiting moderation.
func AdminAgentQueue(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListPending(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"agents": rows})
	}
}

// AdminAgentRoster lists agents cleared for dispatch.
func AdminAgentRoster(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"agents": rows})
	}
}

// AdminAgentApprove activates a pending agent.
func AdminAgentApprove(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return agentModeration(svc, logg, svc.Approve)
}

// AdminAgentReject declines a pending agent.
func AdminAgentReject(svc agents.Service, logg *logger.Logger) http.HandlerFunc {
	return agentModeration(svc, logg, svc.Reject)
}

func agentModeration(svc agents.Service, logg *logger.Logger, decide func(ctx context.Context, input agents.ModerationInput) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		agentID, err := parseAgentID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req agentModerationRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		input, err := req.toInput(agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := decide(r.Context(), input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		agent, err := svc.Find(r.Context(), agentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, agent)
	}
}

func parseAgentID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "agentId"))
	agentID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid agent id")
	}
	return agentID, nil
}
