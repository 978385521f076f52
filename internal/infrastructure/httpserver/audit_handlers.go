package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/quotagate/quotagate/internal/core/domain/audit"
	"github.com/quotagate/quotagate/internal/core/ports"
)

// listAuditRecords handles GET /api/v1/audit: the decision trail for the
// caller's own tenant, newest first. Requires the audit.read permission,
// which only the admin wildcard grants in the default role map.
func (s *Server) listAuditRecords(c echo.Context) error {
	sec, err := s.resolveAndThrottle(c, "query.list.audit")
	if err != nil {
		return guardHTTPError(c, err)
	}
	if !sec.Permissions.Has("audit.read") {
		return guardHTTPError(c, ports.NewGuardError(ports.CodePermissionDenied, `permission "audit.read" required`))
	}

	tenantID := sec.TenantID
	filter := &audit.Filter{TenantID: &tenantID, Limit: 100}

	if op := c.QueryParam("operation"); op != "" {
		filter.Operation = &op
	}
	if reason := c.QueryParam("reason"); reason != "" {
		filter.Reason = &reason
	}
	if allowed := c.QueryParam("allowed"); allowed != "" {
		v, perr := strconv.ParseBool(allowed)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid allowed filter")
		}
		filter.Allowed = &v
	}
	if limit := c.QueryParam("limit"); limit != "" {
		v, perr := strconv.Atoi(limit)
		if perr != nil || v < 1 || v > 1000 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		filter.Limit = v
	}
	if offset := c.QueryParam("offset"); offset != "" {
		v, perr := strconv.Atoi(offset)
		if perr != nil || v < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid offset")
		}
		filter.Offset = v
	}

	records, total, err := s.auditSvc.GetRecords(c.Request().Context(), filter)
	if err != nil {
		return guardHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"records": records,
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
	})
}
