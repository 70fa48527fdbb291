package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianml/tomevault/internal/auth"
	"github.com/cristianml/tomevault/internal/model"
)

// invoke runs mw around a trivial handler, optionally installing a
// principal first, and returns the response.
func invoke(t *testing.T, mw echo.MiddlewareFunc, p *auth.Principal) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if p != nil {
		c.Set(principalKey, p)
	}
	handler := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, handler(c))
	return rec
}

func principalWithRoles(roles ...string) *auth.Principal {
	u := activeUser("carol", roles...)
	p := auth.DerivePrincipal(&u)
	return &p
}

func TestRequireAuthenticated(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, invoke(t, RequireAuthenticated(), nil).Code)
	assert.Equal(t, http.StatusOK, invoke(t, RequireAuthenticated(), principalWithRoles(model.RoleUser)).Code)
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(model.RoleAdmin, model.RoleSuperAdmin)

	assert.Equal(t, http.StatusUnauthorized, invoke(t, mw, nil).Code)
	assert.Equal(t, http.StatusForbidden, invoke(t, mw, principalWithRoles(model.RoleUser)).Code)
	assert.Equal(t, http.StatusOK, invoke(t, mw, principalWithRoles(model.RoleAdmin)).Code)
	assert.Equal(t, http.StatusOK, invoke(t, mw, principalWithRoles(model.RoleSuperAdmin)).Code)
}

func TestRequireAuthority(t *testing.T) {
	mw := RequireAuthority(model.PermManageUsers)

	assert.Equal(t, http.StatusUnauthorized, invoke(t, mw, nil).Code)
	// USER has book permissions but not MANAGE_USERS.
	assert.Equal(t, http.StatusForbidden, invoke(t, mw, principalWithRoles(model.RoleUser)).Code)
	assert.Equal(t, http.StatusOK, invoke(t, mw, principalWithRoles(model.RoleAdmin)).Code)

	read := RequireAuthority(model.PermReadBook)
	assert.Equal(t, http.StatusOK, invoke(t, read, principalWithRoles(model.RoleUser)).Code)
}
