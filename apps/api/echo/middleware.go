package echoapi

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/childclub/backend/core"
)

// RequestObserver records the latency of served requests.
type RequestObserver interface {
	ObserveRequest(method, route, code string, seconds float64)
}

// metricsMiddleware handles the error itself so that the observed status is the one sent.
func metricsMiddleware(obs RequestObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			if err := next(ctx); err != nil {
				ctx.Error(err)
			}

			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			obs.ObserveRequest(
				ctx.Request().Method,
				route,
				strconv.Itoa(ctx.Response().Status),
				time.Since(start).Seconds(),
			)
			return nil
		}
	}
}

// timeoutMiddleware bounds the request context by d unless the client already set a deadline.
func timeoutMiddleware(d time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			c, cancel := core.WithDefaultTimeout(ctx.Request().Context(), d)
			defer cancel()

			ctx.SetRequest(ctx.Request().WithContext(c))
			return next(ctx)
		}
	}
}
