package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Yamojr001/lip-sub002/internal/platform/metrics"
)

// Metrics records request counts and latency per route template, so
// /api/v1/patients/:id is one series rather than one per record.
func Metrics(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			m.RecordHTTPRequest(c.Request().Method, route, statusOf(c, err), time.Since(start))
			return err
		}
	}
}
