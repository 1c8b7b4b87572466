package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/shuleni/backend/core/principal"
)

// roleMiddleware is a pure allow-list gate over the authenticated principal.
func roleMiddleware(svc *principal.Service, roles ...principal.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			prin, err := getContextPrincipal(ctx, svc)
			if err != nil {
				return errors.Wrap(err, "getting context principal")
			}
			for _, role := range roles {
				if prin.Role == role {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
