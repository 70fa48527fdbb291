package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "unit-test-secret-key"
	testIssuer = "tomevault-test"
)

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	authorities := []string{"ROLE_USER", "READ_BOOK", "ADD_BOOK"}

	tok, err := IssueToken(testSecret, testIssuer, "alice", authorities, 15*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	claims, err := VerifyToken(testSecret, testIssuer, tok.Token)
	require.NoError(t, err)

	assert.Equal(t, "alice", ExtractSubject(claims))
	assert.Equal(t, "ROLE_USER,READ_BOOK,ADD_BOOK", ExtractClaim(claims, "authorities"))
	assert.Equal(t, testIssuer, ExtractClaim(claims, "iss"))
	assert.NotEmpty(t, ExtractClaim(claims, "jti"), "every token needs a unique id")
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	tok, err := IssueToken(testSecret, testIssuer, "alice", nil, -1*time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(testSecret, testIssuer, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// A token whose exp equals the current instant is already invalid: the
// lifetime is half-open, valid strictly before exp.
func TestVerifyRejectsTokenAtExactExpiry(t *testing.T) {
	tok, err := IssueToken(testSecret, testIssuer, "alice", nil, 0)
	require.NoError(t, err)

	_, err = VerifyToken(testSecret, testIssuer, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// One second before expiry the token is still good.
func TestVerifyAcceptsTokenJustBeforeExpiry(t *testing.T) {
	tok, err := IssueToken(testSecret, testIssuer, "alice", nil, time.Second)
	require.NoError(t, err)

	claims, err := VerifyToken(testSecret, testIssuer, tok.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", ExtractSubject(claims))
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	tok, err := IssueToken(testSecret, "some-other-service", "alice", nil, 15*time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(testSecret, testIssuer, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	tok, err := IssueToken(testSecret, testIssuer, "alice", nil, 15*time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken("a-different-secret", testIssuer, tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := VerifyToken(testSecret, testIssuer, "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
