package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"sekolahku/core/authz"
)

// superadminMiddleware guards platform administration endpoints.
func superadminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if authz.Role(claims.Role) == authz.RoleSuperadmin {
				return next(ctx)
			}
			return errHTTPForbidden
		}
	}
}
