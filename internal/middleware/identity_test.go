package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianml/tomevault/internal/model"
	"github.com/cristianml/tomevault/internal/repository"
	"github.com/cristianml/tomevault/internal/utils"
)

const (
	testSecret = "identity-test-secret"
	testIssuer = "tomevault-test"
)

type fakeUserSource struct {
	users map[string]model.User
}

func (f *fakeUserSource) GetByUsername(_ context.Context, username string) (model.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func activeUser(username string, roles ...string) model.User {
	u := model.User{
		ID:                    1,
		Username:              username,
		Email:                 username + "@example.com",
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
	for _, name := range roles {
		for _, entry := range model.RoleCatalog {
			if entry.Role != name {
				continue
			}
			role := model.Role{Name: name}
			for _, p := range entry.Permissions {
				role.Permissions = append(role.Permissions, model.Permission{Name: p})
			}
			u.Roles = append(u.Roles, role)
		}
	}
	return u
}

// run pushes a request through RequestIdentity with the given user source
// and records whether the inner handler ran and what principal it saw.
func run(t *testing.T, users UserSource, authorization string) (*httptest.ResponseRecorder, bool, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()

	var handlerRan bool
	var principalName string
	handler := RequestIdentity(testSecret, testIssuer, users)(func(c echo.Context) error {
		handlerRan = true
		if p := CurrentPrincipal(c); p != nil {
			principalName = p.Username
		}
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(e.NewContext(req, rec)))
	return rec, handlerRan, principalName
}

func issue(t *testing.T, subject string) string {
	t.Helper()
	tok, err := utils.IssueToken(testSecret, testIssuer, subject, nil, 15*time.Minute)
	require.NoError(t, err)
	return "Bearer " + tok.Token
}

func errorCodeOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["errorCode"]
}

func TestRequestIdentityAnonymousPassThrough(t *testing.T) {
	users := &fakeUserSource{users: map[string]model.User{}}

	rec, ran, name := run(t, users, "")
	assert.True(t, ran, "request without a token must reach the handler")
	assert.Empty(t, name)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIdentityResolvesPrincipal(t *testing.T) {
	users := &fakeUserSource{users: map[string]model.User{
		"alice": activeUser("alice", model.RoleUser),
	}}

	rec, ran, name := run(t, users, issue(t, "alice"))
	assert.True(t, ran)
	assert.Equal(t, "alice", name)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIdentityRejectsBadToken(t *testing.T) {
	users := &fakeUserSource{users: map[string]model.User{}}

	rec, ran, _ := run(t, users, "Bearer garbage")
	assert.False(t, ran)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", errorCodeOf(t, rec))
}

func TestRequestIdentityRejectsUnknownSubject(t *testing.T) {
	users := &fakeUserSource{users: map[string]model.User{}}

	rec, ran, _ := run(t, users, issue(t, "ghost"))
	assert.False(t, ran)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", errorCodeOf(t, rec))
}

// A user disabled after token issuance is cut off on the very next
// request, well before the token expires.
func TestRequestIdentityRejectsDisabledUser(t *testing.T) {
	disabled := activeUser("alice", model.RoleUser)
	disabled.Enabled = false
	users := &fakeUserSource{users: map[string]model.User{"alice": disabled}}

	rec, ran, _ := run(t, users, issue(t, "alice"))
	assert.False(t, ran)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "account_disabled", errorCodeOf(t, rec))
}

func TestRequestIdentityRejectsDeletedUser(t *testing.T) {
	deleted := activeUser("alice", model.RoleUser)
	deleted.Deleted = true
	deleted.Enabled = false
	users := &fakeUserSource{users: map[string]model.User{"alice": deleted}}

	rec, ran, _ := run(t, users, issue(t, "alice"))
	assert.False(t, ran)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "account_deleted", errorCodeOf(t, rec))
}

// Authorities come from the store at request time, not from the token: a
// role revoked after issuance is gone immediately.
func TestRequestIdentityReResolvesAuthorities(t *testing.T) {
	users := &fakeUserSource{users: map[string]model.User{
		"alice": activeUser("alice", model.RoleAdmin),
	}}
	token := issue(t, "alice")

	e := echo.New()
	check := RequestIdentity(testSecret, testIssuer, users)(func(c echo.Context) error {
		p := CurrentPrincipal(c)
		require.NotNil(t, p)
		return c.JSON(http.StatusOK, echo.Map{"admin": p.HasRole(model.RoleAdmin)})
	})

	do := func() map[string]bool {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", token)
		rec := httptest.NewRecorder()
		require.NoError(t, check(e.NewContext(req, rec)))
		var body map[string]bool
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		return body
	}

	assert.True(t, do()["admin"])

	// Demote alice; the same unexpired token now yields a USER principal.
	users.users["alice"] = activeUser("alice", model.RoleUser)
	assert.False(t, do()["admin"])
}
