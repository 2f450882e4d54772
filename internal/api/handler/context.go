package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lotmarket/auction-api/internal/core/domain"
)

// ContextProfileKey is where the Identity middleware stores the caller's profile.
const ContextProfileKey = "profile"

// ctxProfile returns the caller's profile resolved by the Identity
// middleware. Its absence means the route was mounted without it.
func ctxProfile(c echo.Context) (*domain.Profile, error) {
	p, _ := c.Get(ContextProfileKey).(*domain.Profile)
	if p == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return p, nil
}
