package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/umalmyha/customersync/internal/monitoring"
)

// Metrics records count and latency of every request by route pattern
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			monitoring.RecordHTTPRequest(c.Request().Method, c.Path(), strconv.Itoa(c.Response().Status), time.Since(start))
			return nil
		}
	}
}
