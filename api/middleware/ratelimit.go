package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/quickbites/dispatch-backend/api/responses"
	pkgerrors "github.com/quickbites/dispatch-backend/pkg/errors"
	"github.com/quickbites/dispatch-backend/pkg/logger"
)

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ReportRateLimitPolicy defines the throttling parameters for a traffic surface.
type ReportRateLimitPolicy struct {
	name       string
	window     time.Duration
	ipLimit    int
	agentLimit int
}

// NewReportRateLimitPolicy builds a policy with the supplied window and limits.
func NewReportRateLimitPolicy(name string, window time.Duration, ipLimit, agentLimit int) ReportRateLimitPolicy {
	return ReportRateLimitPolicy{
		name:       strings.ToLower(strings.TrimSpace(name)),
		window:     window,
		ipLimit:    ipLimit,
		agentLimit: agentLimit,
	}
}

func (p ReportRateLimitPolicy) enabled() bool {
	return p.window > 0 && (p.ipLimit > 0 || p.agentLimit > 0)
}

func (p ReportRateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "report"
	}
	return p.name
}

func (p ReportRateLimitPolicy) ipScope(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("ip:%s:%s", p.normalizedName(), ip)
}

func (p ReportRateLimitPolicy) agentScope(agentID string) string {
	if agentID == "" {
		return ""
	}
	return fmt.Sprintf("agent:%s:%s", p.normalizedName(), agentID)
}

// ReportRateLimit enforces per-IP and per-agent counters for high-frequency
// endpoints such as location reporting. The agent id comes from the route
// context set by AgentContext.
func ReportRateLimit(policy ReportRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if policy.ipLimit > 0 {
				ip := clientIP(r)
				if scope := policy.ipScope(ip); scope != "" {
					allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.ipLimit), policy.window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						respondRateLimited(ctx, logg, w, policy, "ip", ip, count, policy.ipLimit)
						return
					}
				}
			}

			if policy.agentLimit > 0 {
				agentID := AgentIDFromContext(ctx)
				if scope := policy.agentScope(agentID); scope != "" {
					allowed, count, err := store.FixedWindowAllow(ctx, scope, int64(policy.agentLimit), policy.window)
					if err != nil {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
						return
					}
					if !allowed {
						respondRateLimited(ctx, logg, w, policy, "agent", agentID, count, policy.agentLimit)
						return
					}
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func respondRateLimited(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy ReportRateLimitPolicy, scope, subject string, count int64, limit int) {
	if logg != nil {
		fields := map[string]any{
			"scope":          scope,
			"subject":        subject,
			"policy":         policy.normalizedName(),
			"attempts":       count,
			"limit":          limit,
			"window_seconds": int(policy.window.Seconds()),
		}
		logCtx := logg.WithFields(ctx, fields)
		logg.Warn(logCtx, "report.rate_limit.blocked")
	}
	err := pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded")
	responses.WriteError(ctx, nil, w, err)
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
