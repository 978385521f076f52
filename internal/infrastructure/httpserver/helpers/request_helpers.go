package helpers

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// GetBearerToken extracts the bearer credential from the Authorization
// header. It returns an empty string rather than an error when absent:
// unauthenticated requests still pass through the guard, where they are rate
// limited by origin before the authentication failure surfaces.
func GetBearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(authHeader, "Bearer ")
}
