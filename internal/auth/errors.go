// Package auth holds the runtime identity model: typed authentication and
// authorization failures, the account-status precondition and the Principal
// derived per request.  Nothing in this package touches the database or the
// network; it is pure domain logic shared by the authenticator service and
// the request identity filter.
package auth

import "errors"

// Typed failures of the authentication/authorization subsystem.  Handlers
// map these to JSON bodies with a stable errorCode; the outward message for
// the first three is deliberately identical (see UniformLoginMessage) so a
// caller cannot tell an unknown user from a wrong password or a disabled
// account by message text alone.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrAccountDeleted     = errors.New("account deleted")
	ErrAccountLocked      = errors.New("account locked")
	ErrAccountExpired     = errors.New("account expired")
	ErrAccessDenied       = errors.New("access denied")
)

// UniformLoginMessage is the single user-facing text for every
// authentication failure, regardless of cause.  The errorCode in the
// response body still distinguishes the causes for client-side UX.
const UniformLoginMessage = "Invalid credentials. Please try again."

// ErrorCode returns the stable wire code for an auth failure, or "" when
// the error does not belong to this taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountDisabled):
		return "account_disabled"
	case errors.Is(err, ErrAccountDeleted):
		return "account_deleted"
	case errors.Is(err, ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, ErrAccountExpired):
		return "account_expired"
	case errors.Is(err, ErrAccessDenied):
		return "access_denied"
	}
	return ""
}
