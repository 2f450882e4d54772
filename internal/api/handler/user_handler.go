package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lotmarket/auction-api/internal/core/ports"
)

// UserHandler serves profile queries.
type UserHandler struct {
	service ports.ProfileService
}

func NewUserHandler(service ports.ProfileService) *UserHandler {
	return &UserHandler{service: service}
}

// Me handles GET /v1/users/me.
//
// @Summary      Current caller's profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  profileResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	profile, err := ctxProfile(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// Get handles GET /v1/users/:public_id.
//
// @Summary      Get a profile
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        public_id  path      string  true  "Profile public id"
// @Success      200        {object}  profileResponse
// @Failure      404        {object}  errorResponse
// @Router       /v1/users/{public_id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	profile, err := h.service.GetProfile(c.Request().Context(), c.Param("public_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProfileResponse(profile))
}

// List handles GET /v1/users.
//
// @Summary      List profiles
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        limit   query     int  false  "Page size (max 100)"
// @Param        offset  query     int  false  "Page offset"
// @Success      200     {object}  pageResponse[profileResponse]
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	var limit, offset int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).Int("offset", &offset).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "limit and offset must be integers")
	}

	page, err := h.service.ListProfiles(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pageResponse[*profileResponse]{
		Items:  mapSlice(page.Items, toProfileResponse),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
}
