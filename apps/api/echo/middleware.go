package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studentrecords/core/student"
)

const objectKey = "object"

// noCacheMiddleware keeps browsers from caching API responses.
func noCacheMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctx.Response().Header().Set(echo.HeaderCacheControl, "no-cache, must-revalidate")
		return next(ctx)
	}
}

// studentObjectMiddleware loads the student referenced by the `id` path param into the context.
func studentObjectMiddleware(svc *student.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			s, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == student.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student by ID")
			}
			ctx.Set(objectKey, s)
			return next(ctx)
		}
	}
}
