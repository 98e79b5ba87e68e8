package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// RequireRole admits callers holding any of roles. Admins pass every check.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	denied := "required role: " + strings.Join(roles, " or ")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p.IsAdmin() {
				return next(c)
			}
			for _, r := range roles {
				if p.HasRole(r) {
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusForbidden, denied)
		}
	}
}

// RequireFacility rejects non-admin callers that carry no facility claim.
func RequireFacility() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := PrincipalFromContext(c.Request().Context())
			if p.IsAdmin() || p.FacilityID != nil {
				return next(c)
			}
			return echo.NewHTTPError(http.StatusForbidden, "no facility assigned to user")
		}
	}
}
