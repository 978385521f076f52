package httpserver

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/quotagate/quotagate/internal/core/domain/audit"
	"github.com/quotagate/quotagate/internal/core/domain/quota"
	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
	"github.com/quotagate/quotagate/internal/infrastructure/httpserver/helpers"
)

// rawIdentity collects the unresolved caller identity from the request:
// the bearer credential (possibly absent) and the network origin used as
// the rate-limiting fallback.
func rawIdentity(c echo.Context) ports.RawIdentity {
	return ports.RawIdentity{
		Credential: helpers.GetBearerToken(c),
		Origin:     c.RealIP(),
	}
}

// resolveAndThrottle runs the guard preamble for endpoints that do not go
// through a tenant-scoped handler: resolve the caller, rate limit under the
// named operation (user identity when resolved, network origin otherwise),
// audit a denial, and only then surface any resolution error. The ordering
// matches the operation guard so these endpoints cannot be hammered for free.
func (s *Server) resolveAndThrottle(c echo.Context, opName string) (*security.Context, error) {
	ctx := c.Request().Context()
	raw := rawIdentity(c)

	sec, resolveErr := s.resolver.Resolve(ctx, raw)
	if resolveErr != nil && ports.GuardCodeOf(resolveErr) == ports.CodeInternal {
		return nil, ports.NewGuardError(ports.CodeInternal, "identity resolution failed")
	}

	var id quota.Identity
	if sec != nil {
		id = quota.UserIdentity(sec.UserID)
	} else {
		id = quota.OriginIdentity(raw.Origin)
	}

	decision, err := s.rateLimiter.Check(ctx, id, opName, 0)
	if err != nil {
		return nil, ports.NewGuardError(ports.CodeInternal, "rate limit check failed")
	}
	if !decision.Allowed {
		reason := audit.ReasonRateLimited
		if decision.Reason == quota.DenyBlocked {
			reason = audit.ReasonBlocked
		}
		rec := &audit.Record{
			IdentityKey:     id.String(),
			Operation:       opName,
			Reason:          reason,
			TokensRemaining: decision.TokensRemaining,
			IPAddress:       raw.Origin,
		}
		if sec != nil {
			tenantID, userID := sec.TenantID, sec.UserID
			rec.TenantID = &tenantID
			rec.UserID = &userID
		}
		s.auditSvc.Record(ctx, rec)
		return nil, ports.NewRateLimitedError(
			fmt.Sprintf("rate limit exceeded for %s; retry in %d seconds", opName, decision.ResetInSeconds),
			decision.ResetInSeconds,
		)
	}

	if resolveErr != nil {
		return nil, resolveErr
	}
	return sec, nil
}

// guardHTTPError maps guard error codes onto HTTP statuses. Cross-tenant
// access is presented as a plain 404 so callers cannot probe for foreign
// document ids; the audit trail still records it distinctly.
func guardHTTPError(c echo.Context, err error) error {
	var ge ports.GuardError
	code := ports.GuardCodeOf(err)
	if g, ok := err.(ports.GuardError); ok {
		ge = g
	}

	switch code {
	case ports.CodeUnauthenticated:
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case ports.CodeAccountInactive:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case ports.CodePermissionDenied:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case ports.CodeRateLimited:
		if ge != nil {
			c.Response().Header().Set("Retry-After", strconv.Itoa(ge.RetryAfter()))
		}
		return echo.NewHTTPError(http.StatusTooManyRequests, err.Error())
	case ports.CodeNotFound, ports.CodeCrossTenantAccess:
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
