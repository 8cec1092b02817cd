package middleware

import (
	"net/http"
	"time"

	"luthier/internal/common"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// AuditLog records every mutating request with the caller identity resolved
// by the JWT middleware. Read-only requests pass through untouched.
func AuditLog() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodGet || c.Request().Method == http.MethodHead {
				return next(c)
			}

			start := time.Now()
			err := next(c)

			userID := "anonymous"
			if id, ok := common.GetUserIDFromContext(c.Request().Context()); ok {
				userID = id.String()
			}
			tenantID := "unknown"
			if id, ok := common.GetTenantIDFromContext(c.Request().Context()); ok {
				tenantID = id.String()
			}

			log.Infof("audit method=%s path=%s user=%s tenant=%s status=%d duration=%s",
				c.Request().Method, c.Path(), userID, tenantID,
				c.Response().Status, time.Since(start).Round(time.Millisecond))

			return err
		}
	}
}
