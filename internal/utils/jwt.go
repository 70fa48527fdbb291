package utils // package utils provides helper functions for token creation and hashing

import (
	"errors"
	"strings"
	"time" // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
	"github.com/google/uuid"       // uuid generates the unique token id (jti)
)

// ErrInvalidToken is the only error the verification path ever returns.
// Bad signature, wrong algorithm, wrong issuer, not-yet-valid and expired
// all collapse into this constant-shape value so a caller (or attacker)
// learns nothing about which check failed.
var ErrInvalidToken = errors.New("token invalid or unauthorized")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string.  Exp stores the expiration
// timestamp as a time.Time.  Access tokens are short‑lived and encoded
// in the Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// IssueToken builds and signs an HS256 JWT for an authenticated subject.
// It takes the signing secret, the configured issuer, the subject
// (username), the flattened authority strings and a TTL.  The resulting
// claims are: iss, sub, authorities (comma-joined), iat, nbf (= iat),
// exp (= iat + ttl) and a random jti.
//
// The authorities claim is written for client display only.  The identity
// filter re-resolves authorities from the credential store on every request
// and never reads this claim for authorization decisions, so a role change
// or account disablement takes effect immediately even while the token is
// still unexpired.
func IssueToken(secret, issuer, subject string, authorities []string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"iss":         issuer,
		"sub":         subject,
		"authorities": strings.Join(authorities, ","),
		"iat":         now.Unix(),
		"nbf":         now.Unix(),
		"exp":         exp.Unix(),
		"jti":         uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// VerifyToken checks the signature, algorithm and issuer of a token and
// that the current time lies within [nbf, exp).  A token exactly at its
// exp instant is rejected.  On any violation the constant ErrInvalidToken
// is returned; the claims are only returned when every check passes.
func VerifyToken(secret, issuer, token string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		// Only HMAC is acceptable; reject tokens signed with any other
		// algorithm family before touching the key.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithIssuedAt())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	// The library treats exp with sub-second leeway; the token lifecycle
	// here is half-open [nbf, exp), so enforce the boundary explicitly.
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil || !time.Now().Before(exp.Time) {
		return nil, ErrInvalidToken
	}
	if nbf, err := claims.GetNotBefore(); err == nil && nbf != nil && time.Now().Before(nbf.Time) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ExtractSubject returns the sub claim (the username) from verified claims.
func ExtractSubject(claims jwt.MapClaims) string {
	sub, _ := claims.GetSubject()
	return sub
}

// ExtractClaim returns a named claim as a string, or "" when absent or of
// another type.
func ExtractClaim(claims jwt.MapClaims, name string) string {
	if v, ok := claims[name].(string); ok {
		return v
	}
	return ""
}
