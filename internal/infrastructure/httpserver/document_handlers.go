package httpserver

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/quotagate/quotagate/internal/core/domain/security"
	"github.com/quotagate/quotagate/internal/core/ports"
)

// listDocuments handles GET /api/v1/documents/:kind
func (s *Server) listDocuments(c echo.Context) error {
	kind := c.Param("kind")
	op := ports.Operation{
		Name:       "query.list." + kind,
		Resource:   kind,
		Permission: security.Perm(kind, "read"),
	}
	result, err := s.guard.Execute(c.Request().Context(), rawIdentity(c), op, func(ctx context.Context, scope ports.TenantScope) (any, error) {
		return scope.List(ctx)
	})
	if err != nil {
		return guardHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// getDocument handles GET /api/v1/documents/:kind/:id
func (s *Server) getDocument(c echo.Context) error {
	kind := c.Param("kind")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid document id")
	}
	op := ports.Operation{
		Name:       "query.read." + kind,
		Resource:   kind,
		Permission: security.Perm(kind, "read"),
	}
	result, gerr := s.guard.Execute(c.Request().Context(), rawIdentity(c), op, func(ctx context.Context, scope ports.TenantScope) (any, error) {
		return scope.ByID(ctx, id)
	})
	if gerr != nil {
		return guardHTTPError(c, gerr)
	}
	return c.JSON(http.StatusOK, result)
}

// createDocument handles POST /api/v1/documents/:kind
func (s *Server) createDocument(c echo.Context) error {
	kind := c.Param("kind")
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	op := ports.Operation{
		Name:       "mutation.create." + kind,
		Resource:   kind,
		Permission: security.Perm(kind, "create"),
	}
	result, err := s.guard.Execute(c.Request().Context(), rawIdentity(c), op, func(ctx context.Context, scope ports.TenantScope) (any, error) {
		// The tenant scope injects the caller's tenant id; any tenant id in
		// the body is discarded.
		id, err := scope.Insert(ctx, body, "")
		if err != nil {
			return nil, err
		}
		return map[string]any{"id": id}, nil
	})
	if err != nil {
		return guardHTTPError(c, err)
	}
	return c.JSON(http.StatusCreated, result)
}

// updateDocument handles PATCH /api/v1/documents/:kind/:id
func (s *Server) updateDocument(c echo.Context) error {
	kind := c.Param("kind")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid document id")
	}
	var patch map[string]any
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	op := ports.Operation{
		Name:       "mutation.update." + kind,
		Resource:   kind,
		Permission: security.Perm(kind, "update"),
	}
	_, gerr := s.guard.Execute(c.Request().Context(), rawIdentity(c), op, func(ctx context.Context, scope ports.TenantScope) (any, error) {
		return nil, scope.Update(ctx, id, patch, "")
	})
	if gerr != nil {
		return guardHTTPError(c, gerr)
	}
	return c.NoContent(http.StatusNoContent)
}

// deleteDocument handles DELETE /api/v1/documents/:kind/:id
func (s *Server) deleteDocument(c echo.Context) error {
	kind := c.Param("kind")
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid document id")
	}
	op := ports.Operation{
		Name:       "mutation.delete." + kind,
		Resource:   kind,
		Permission: security.Perm(kind, "delete"),
	}
	_, gerr := s.guard.Execute(c.Request().Context(), rawIdentity(c), op, func(ctx context.Context, scope ports.TenantScope) (any, error) {
		return nil, scope.Delete(ctx, id, "")
	})
	if gerr != nil {
		return guardHTTPError(c, gerr)
	}
	return c.NoContent(http.StatusNoContent)
}

// exportDocuments handles POST /api/v1/documents/:kind/export. Exports are
// priced under the heavier action.export bucket rather than the query family.
func (s *Server) exportDocuments(c echo.Context) error {
	kind := c.Param("kind")
	op := ports.Operation{
		Name:       "action.export",
		Resource:   kind,
		Permission: security.Perm(kind, "export"),
	}
	result, err := s.guard.Execute(c.Request().Context(), rawIdentity(c), op, func(ctx context.Context, scope ports.TenantScope) (any, error) {
		docs, err := scope.List(ctx)
		if err != nil {
			return nil, err
		}
		return map[string]any{"kind": kind, "count": len(docs), "documents": docs}, nil
	})
	if err != nil {
		return guardHTTPError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
