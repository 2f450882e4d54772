package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lotmarket/auction-api/internal/api/metrics"
)

// Metrics records request latency under the matched route template, so
// /v1/lots/:lot_id is one series regardless of the id. Errors are rendered
// here so the observed status is the one the client receives.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			metrics.HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(c.Response().Status)).
				Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
