package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RBAC admits callers whose role claim, set by Auth, is one of allowedRoles.
// A request that reached it without a role is treated as unauthenticated.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing role claim")
			}
			if _, ok := allowed[role]; !ok {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
