package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/quotagate/quotagate/internal/core/domain/audit"
	"github.com/quotagate/quotagate/internal/core/domain/quota"
	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
)

// GuardService is the composition point every guarded operation passes
// through. The order is fixed: resolve identity, rate limit, permission
// check, handler, audit. Rate limiting runs before the permission check so
// abusive traffic is throttled without paying for a permission lookup, and
// the permission check runs before the handler so unauthorized calls cause
// no side effects.
type GuardService struct {
	resolver ports.SecurityContextResolver
	limiter  ports.RateLimiterService
	store    ports.DocumentStore
	audit    ports.AuditService
	metrics  ports.MetricsRecorder
	logger   *logrus.Logger
}

func NewGuardService(resolver ports.SecurityContextResolver, limiter ports.RateLimiterService, store ports.DocumentStore, auditSvc ports.AuditService, metrics ports.MetricsRecorder, logger *logrus.Logger) *GuardService {
	return &GuardService{
		resolver: resolver,
		limiter:  limiter,
		store:    store,
		audit:    auditSvc,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute runs one guarded operation end to end. Handlers only ever receive
// the tenant scope, never raw storage.
func (g *GuardService) Execute(ctx context.Context, raw ports.RawIdentity, op ports.Operation, handler ports.OperationHandler) (any, error) {
	sec, resolveErr := g.resolver.Resolve(ctx, raw)
	if resolveErr != nil && ports.GuardCodeOf(resolveErr) == ports.CodeInternal {
		if g.logger != nil {
			g.logger.WithField("operation", op.Name).WithError(resolveErr).Error("identity resolution failed")
		}
		return nil, ports.NewGuardError(ports.CodeInternal, "identity resolution failed")
	}

	// Unresolved callers are still rate limited, keyed on their network
	// origin, before the resolution error surfaces.
	id := limiterIdentity(sec, raw)
	decision, err := g.limiter.Check(ctx, id, op.Name, op.Cost)
	if err != nil {
		if g.logger != nil {
			g.logger.WithField("operation", op.Name).WithError(err).Error("rate limit check failed")
		}
		return nil, ports.NewGuardError(ports.CodeInternal, "rate limit check failed")
	}
	if !decision.Allowed {
		reason := audit.ReasonRateLimited
		if decision.Reason == quota.DenyBlocked {
			reason = audit.ReasonBlocked
		}
		g.record(ctx, sec, id, raw, op, &decision, reason, nil)
		return nil, ports.NewRateLimitedError(
			fmt.Sprintf("rate limit exceeded for %s; retry in %d seconds", op.Name, decision.ResetInSeconds),
			decision.ResetInSeconds,
		)
	}

	if resolveErr != nil {
		reason := audit.ReasonUnauthenticated
		if ports.GuardCodeOf(resolveErr) == ports.CodeAccountInactive {
			reason = audit.ReasonAccountInactive
		}
		g.record(ctx, sec, id, raw, op, &decision, reason, nil)
		return nil, resolveErr
	}

	if op.Permission != "" && !sec.Permissions.Has(op.Permission) {
		g.record(ctx, sec, id, raw, op, &decision, audit.ReasonPermissionDenied, map[string]any{
			"required_permission": op.Permission,
		})
		return nil, ports.NewGuardError(ports.CodePermissionDenied, fmt.Sprintf("permission %q required", op.Permission))
	}

	scope, err := NewTenantScope(g.store, sec, op.Resource, g.logger)
	if err != nil {
		return nil, err
	}

	result, err := handler(ctx, scope)
	if err != nil {
		g.record(ctx, sec, id, raw, op, &decision, handlerReason(err), map[string]any{
			"error": err.Error(),
		})
		return nil, err
	}

	g.record(ctx, sec, id, raw, op, &decision, "", nil)
	return result, nil
}

// record appends the audit entry and bumps metrics. The audit write is
// best-effort but happens synchronously so the per-request ordering between
// a decision and its record is preserved.
func (g *GuardService) record(ctx context.Context, sec *security.Context, id quota.Identity, raw ports.RawIdentity, op ports.Operation, d *quota.Decision, reason string, details map[string]any) {
	rec := &audit.Record{
		IdentityKey:     id.String(),
		Operation:       op.Name,
		Allowed:         reason == "",
		Reason:          reason,
		TokensRemaining: d.TokensRemaining,
		IPAddress:       raw.Origin,
	}
	if sec != nil {
		tenantID, userID := sec.TenantID, sec.UserID
		rec.TenantID = &tenantID
		rec.UserID = &userID
	}
	if details != nil {
		rec.Details = details
	}
	g.audit.Record(ctx, rec)

	if g.metrics != nil {
		outcome := reason
		if outcome == "" {
			outcome = "allowed"
		}
		g.metrics.RecordDecision(op.Name, outcome)
	}
}

// limiterIdentity prefers the authenticated user id and falls back to the
// caller's network origin when resolution failed.
func limiterIdentity(sec *security.Context, raw ports.RawIdentity) quota.Identity {
	if sec != nil {
		return quota.UserIdentity(sec.UserID)
	}
	return quota.OriginIdentity(raw.Origin)
}

// handlerReason maps a handler error to its audit reason. Cross-tenant
// access stays distinguishable from a genuine not-found here even when the
// transport presents both the same way.
func handlerReason(err error) string {
	switch ports.GuardCodeOf(err) {
	case ports.CodeCrossTenantAccess:
		return audit.ReasonCrossTenant
	case ports.CodeNotFound:
		return audit.ReasonNotFound
	case ports.CodePermissionDenied:
		return audit.ReasonPermissionDenied
	default:
		return audit.ReasonHandlerError
	}
}
