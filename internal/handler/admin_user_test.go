package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianml/tomevault/internal/auth"
	"github.com/cristianml/tomevault/internal/middleware"
	"github.com/cristianml/tomevault/internal/model"
	"github.com/cristianml/tomevault/internal/repository"
	"github.com/cristianml/tomevault/internal/utils"
)

func principalOf(roles ...string) *auth.Principal {
	u := model.User{ID: 99, Username: "actor"}
	for _, name := range roles {
		u.Roles = append(u.Roles, model.Role{Name: name})
	}
	p := auth.DerivePrincipal(&u)
	return &p
}

func userOf(roles ...string) model.User {
	u := model.User{ID: 1, Username: "target"}
	for _, name := range roles {
		u.Roles = append(u.Roles, model.Role{Name: name})
	}
	return u
}

func TestCanManage(t *testing.T) {
	cases := []struct {
		name    string
		actor   *auth.Principal
		target  model.User
		allowed bool
	}{
		{"super admin manages regular user", principalOf(model.RoleSuperAdmin), userOf(model.RoleUser), true},
		{"super admin manages admin", principalOf(model.RoleSuperAdmin), userOf(model.RoleAdmin), true},
		{"super admin manages super admin", principalOf(model.RoleSuperAdmin), userOf(model.RoleSuperAdmin), true},
		{"admin manages regular user", principalOf(model.RoleAdmin), userOf(model.RoleUser), true},
		{"admin manages developer", principalOf(model.RoleAdmin), userOf(model.RoleDeveloper), true},
		{"admin cannot manage admin", principalOf(model.RoleAdmin), userOf(model.RoleAdmin), false},
		{"admin cannot manage super admin", principalOf(model.RoleAdmin), userOf(model.RoleSuperAdmin), false},
		{"admin cannot manage user holding admin among others", principalOf(model.RoleAdmin), userOf(model.RoleUser, model.RoleAdmin), false},
		{"regular user manages nobody", principalOf(model.RoleUser), userOf(model.RoleUser), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := canManage(tc.actor, &tc.target)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, auth.ErrAccessDenied)
			}
		})
	}
}

// memUserStore also backs the admin endpoints in tests.

func (m *memUserStore) byID(id uint64) (*model.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUserStore) GetByID(_ context.Context, id uint64) (model.User, error) {
	u, err := m.byID(id)
	if err != nil {
		return model.User{}, err
	}
	return *u, nil
}

func (m *memUserStore) List(_ context.Context, offset, limit int) ([]model.User, int, error) {
	all := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (m *memUserStore) Search(ctx context.Context, _ string, offset, limit int) ([]model.User, int, error) {
	return m.List(ctx, offset, limit)
}

func (m *memUserStore) UpdateProfile(_ context.Context, u *model.User) error {
	stored, err := m.byID(u.ID)
	if err != nil {
		return err
	}
	stored.Email = u.Email
	stored.Firstname = u.Firstname
	stored.Lastname = u.Lastname
	stored.Address = u.Address
	stored.BirthDate = u.BirthDate
	return nil
}

func (m *memUserStore) UpdatePassword(_ context.Context, id uint64, hash string) error {
	u, err := m.byID(id)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUserStore) ReplaceRoles(_ context.Context, id uint64, roleNames []string) error {
	u, err := m.byID(id)
	if err != nil {
		return err
	}
	u.Roles = nil
	for _, name := range roleNames {
		u.Roles = append(u.Roles, model.Role{Name: name})
	}
	return nil
}

func (m *memUserStore) SetEnabled(_ context.Context, id uint64, enabled bool) error {
	u, err := m.byID(id)
	if err != nil {
		return err
	}
	u.Enabled = enabled
	return nil
}

func (m *memUserStore) SoftDelete(_ context.Context, id uint64, at time.Time) error {
	u, err := m.byID(id)
	if err != nil {
		return err
	}
	u.Deleted = true
	u.DeletedAt = &at
	u.Enabled = false
	u.AccountNonLocked = false
	return nil
}

func (m *memUserStore) HardDelete(_ context.Context, id uint64) error {
	u, err := m.byID(id)
	if err != nil {
		return err
	}
	delete(m.users, u.Username)
	return nil
}

func seedWithRoles(t *testing.T, store *memUserStore, username, email string, roles ...string) *model.User {
	t.Helper()
	hash, err := utils.HashPassword("Sunny2024", 4)
	require.NoError(t, err)
	u := model.User{
		Username:              username,
		Email:                 email,
		PasswordHash:          hash,
		Enabled:               true,
		AccountNonExpired:     true,
		AccountNonLocked:      true,
		CredentialsNonExpired: true,
	}
	_, err = store.Create(context.Background(), &u, roles)
	require.NoError(t, err)
	return store.users[username]
}

// newAdminApp wires the admin mutation routes through the real identity
// filter and role policy, the same chain the router installs.
func newAdminApp(store *memUserStore) *echo.Echo {
	h := NewAdminUserHandler(store, nil, nil, 4)

	e := echo.New()
	e.Use(middleware.RequestIdentity("handler-test-secret", "tomevault-test", store))
	g := e.Group("/admin/users",
		middleware.RequireAuthenticated(),
		middleware.RequireRole(model.RoleAdmin, model.RoleSuperAdmin))
	g.PUT("/toggle-status/:id", h.ToggleStatus)
	g.DELETE("/:id", h.SoftDelete)
	return e
}

func adminCall(t *testing.T, e *echo.Echo, method, path, username string) *httptest.ResponseRecorder {
	t.Helper()
	tok, err := utils.IssueToken("handler-test-secret", "tomevault-test", username, nil, 15*time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+tok.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// The route policy admits any admin, but mutating a fellow ADMIN must still
// fail at the ownership rule with a 403 body; only SUPER_ADMIN gets through.
func TestAdminPeerMutationOverHTTP(t *testing.T) {
	store := newMemUserStore()
	seedWithRoles(t, store, "root", "root@example.com", model.RoleSuperAdmin)
	seedWithRoles(t, store, "ada", "ada@example.com", model.RoleAdmin)
	target := seedWithRoles(t, store, "bea", "bea@example.com", model.RoleAdmin)
	e := newAdminApp(store)

	path := fmt.Sprintf("/admin/users/toggle-status/%d", target.ID)

	rec := adminCall(t, e, http.MethodPut, path, "ada")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access_denied", decodeBody(t, rec)["errorCode"])
	assert.True(t, store.users["bea"].Enabled)

	rec = adminCall(t, e, http.MethodPut, path, "root")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, store.users["bea"].Enabled)
}

// A plain USER never reaches the handler at all; the role policy rejects the
// request before the ownership rule runs.
func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	store := newMemUserStore()
	seedWithRoles(t, store, "uma", "uma@example.com", model.RoleUser)
	target := seedWithRoles(t, store, "bea", "bea@example.com", model.RoleUser)
	e := newAdminApp(store)

	rec := adminCall(t, e, http.MethodDelete, fmt.Sprintf("/admin/users/%d", target.ID), "uma")
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "access_denied", decodeBody(t, rec)["errorCode"])
	assert.False(t, store.users["bea"].Deleted)
}
