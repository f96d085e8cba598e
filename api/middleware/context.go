package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickbites/dispatch-backend/pkg/logger"
)

type contextKey string

const ctxAgentID contextKey = "agent_id"

func AgentIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAgentID).(string); ok {
		return v
	}
	return ""
}

// WithAgentID injects the agent identifier into the context.
func WithAgentID(ctx context.Context, agentID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAgentID, agentID)
}

// AgentContext lifts the {agentId} route param into the request context and
// the request logger.
func AgentContext(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agentID := chi.URLParam(r, "agentId")
			if agentID == "" {
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithAgentID(r.Context(), agentID)
			if logg != nil {
				ctx = logg.WithAgentID(ctx, agentID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
