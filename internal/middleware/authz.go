package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// The authorization middleware evaluates the principal the identity filter
// installed. A missing principal yields 401 (not authenticated); a present
// but insufficient one yields 403. These route-level checks are the static
// half of the authorization model; target-ownership rules that depend on
// the record being acted on live in the admin handlers.

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"message":   "Authentication required.",
		"errorCode": "invalid_token",
	})
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{
		"message":   "You do not have permission to perform this action.",
		"errorCode": "access_denied",
	})
}

// RequireAuthenticated admits any request with a valid principal.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if CurrentPrincipal(c) == nil {
				return unauthenticated(c)
			}
			return next(c)
		}
	}
}

// RequireRole admits a principal holding at least one of the named roles.
// Role names are given without the ROLE_ prefix.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := CurrentPrincipal(c)
			if p == nil {
				return unauthenticated(c)
			}
			if !p.HasAnyRole(roles...) {
				return forbidden(c)
			}
			return next(c)
		}
	}
}

// RequireAuthority admits a principal carrying the given authority string,
// either a permission name or a ROLE_-prefixed role.
func RequireAuthority(authority string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p := CurrentPrincipal(c)
			if p == nil {
				return unauthenticated(c)
			}
			if !p.HasAuthority(authority) {
				return forbidden(c)
			}
			return next(c)
		}
	}
}
