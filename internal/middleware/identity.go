package middleware // middleware provides shared request processing for handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cristianml/tomevault/internal/auth"
	"github.com/cristianml/tomevault/internal/model"
	"github.com/cristianml/tomevault/internal/utils"
)

// principalKey is the echo context key the identity filter stores the
// derived principal under. The echo context is request-scoped, so the
// principal can never leak into another request.
const principalKey = "principal"

// UserSource is the single credential-store lookup the identity filter
// needs. *repository.UserRepo satisfies it; tests use a fake.
type UserSource interface {
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// authFailedMessage is the one outward message for every identity-filter
// failure. The errorCode distinguishes the causes for clients; the text
// deliberately does not.
const authFailedMessage = "Authentication failed."

// RequestIdentity returns the identity filter, run once per request before
// any authorization check. A request without a Bearer header passes
// through anonymously; the route policy decides later whether that is
// acceptable. A present token must verify, and its subject must resolve to
// a live account: the user is re-read from the credential store and the
// authorities re-derived from the current role/permission graph on every
// request, so role changes and disablement take effect immediately instead
// of at token expiry.
func RequestIdentity(secret, issuer string, users UserSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				// anonymous; downstream policy decides
				return next(c)
			}
			raw := strings.TrimPrefix(header, "Bearer ")

			claims, err := utils.VerifyToken(secret, issuer, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"message":   authFailedMessage,
					"errorCode": "invalid_token",
				})
			}

			subject := utils.ExtractSubject(claims)
			if subject == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"message":   authFailedMessage,
					"errorCode": "invalid_token",
				})
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			u, err := users.GetByUsername(ctx, subject)
			if err != nil {
				// a token for a deleted or renamed user is unusable
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"message":   authFailedMessage,
					"errorCode": "invalid_token",
				})
			}
			if err := auth.CheckAccountStatus(&u); err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{
					"message":   authFailedMessage,
					"errorCode": auth.ErrorCode(err),
				})
			}

			p := auth.DerivePrincipal(&u)
			c.Set(principalKey, &p)
			return next(c)
		}
	}
}

// CurrentPrincipal returns the principal the identity filter installed for
// this request, or nil when the request is anonymous.
func CurrentPrincipal(c echo.Context) *auth.Principal {
	if v, ok := c.Get(principalKey).(*auth.Principal); ok {
		return v
	}
	return nil
}
