package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lotmarket/auction-api/internal/api/handler"
	"github.com/lotmarket/auction-api/internal/core/ports"
)

// Identity resolves the caller's profile from the claims set by Auth. The
// profile is created on first sight, so identities minted by an external
// issuer need no registration step.
func Identity(profiles ports.ProfileService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authID, _ := c.Get(ContextAuthID).(string)
			if authID == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}
			username, _ := c.Get(ContextUsername).(string)

			profile, err := profiles.EnsureProfile(c.Request().Context(), authID, username)
			if err != nil {
				return err
			}
			c.Set(handler.ContextProfileKey, profile)
			return next(c)
		}
	}
}
