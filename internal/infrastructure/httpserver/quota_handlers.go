package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/quotagate/quotagate/internal/core/domain/quota"
)

// quotaStatus handles GET /api/v1/quota/:operation: the caller's current
// bucket state for one operation, read-only, without consuming tokens from
// the inspected bucket. The endpoint itself is rate limited under its own
// operation name.
func (s *Server) quotaStatus(c echo.Context) error {
	operation := c.Param("operation")

	sec, err := s.resolveAndThrottle(c, "query.quota.status")
	if err != nil {
		return guardHTTPError(c, err)
	}

	bucket, cfg, err := s.rateLimiter.Inspect(c.Request().Context(), quota.UserIdentity(sec.UserID), operation)
	if err != nil {
		return guardHTTPError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"operation":        operation,
		"tokens":           bucket.Tokens,
		"max_tokens":       cfg.MaxTokens,
		"refill_rate":      cfg.RefillRate,
		"cost_per_request": cfg.CostPerRequest,
		"violations":       bucket.Violations,
		"blocked_until":    bucket.BlockedUntil,
	})
}
