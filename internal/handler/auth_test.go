package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cristianml/tomevault/internal/auth"
	"github.com/cristianml/tomevault/internal/model"
	"github.com/cristianml/tomevault/internal/repository"
	"github.com/cristianml/tomevault/internal/service"
	"github.com/cristianml/tomevault/internal/utils"
)

// memUserStore backs the auth service in handler tests.
type memUserStore struct {
	users  map[string]*model.User
	nextID uint64
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]*model.User{}, nextID: 1}
}

func (m *memUserStore) GetByUsername(_ context.Context, username string) (model.User, error) {
	if u, ok := m.users[username]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUserStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, ok := m.users[username]
	return ok, nil
}

func (m *memUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *memUserStore) Create(_ context.Context, u *model.User, roleNames []string) (uint64, error) {
	stored := *u
	for _, name := range roleNames {
		for _, entry := range model.RoleCatalog {
			if entry.Role != name {
				continue
			}
			role := model.Role{Name: name}
			for _, p := range entry.Permissions {
				role.Permissions = append(role.Permissions, model.Permission{Name: p})
			}
			stored.Roles = append(stored.Roles, role)
		}
	}
	stored.ID = m.nextID
	m.nextID++
	m.users[stored.Username] = &stored
	u.ID = stored.ID
	return stored.ID, nil
}

func (m *memUserStore) seed(t *testing.T, username, email, password string) {
	t.Helper()
	hash, err := utils.HashPassword(password, 4)
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
	_, err = m.Create(context.Background(), &u, []string{model.RoleUser})
	require.NoError(t, err)
}

func newTestAuthHandler(store *memUserStore) *AuthHandler {
	svc := service.NewAuthService(store, nil, "handler-test-secret", "tomevault-test", 15*time.Minute, 4)
	return NewAuthHandler(svc)
}

func postJSON(t *testing.T, h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLoginSuccess(t *testing.T) {
	store := newMemUserStore()
	store.seed(t, "alice", "alice@example.com", "Sunny2024")
	h := newTestAuthHandler(store)

	rec := postJSON(t, h.Login, "/auth/login", `{"usernameOrEmail":"alice","password":"Sunny2024"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, true, body["status"])
	assert.NotEmpty(t, body["token"])
}

// Unknown user, wrong password and disabled account all answer 401 with
// the identical message; only errorCode differs.
func TestLoginFailuresShareOneMessage(t *testing.T) {
	store := newMemUserStore()
	store.seed(t, "alice", "alice@example.com", "Sunny2024")
	store.users["alice"].Enabled = false
	store.seed(t, "bob", "bob@example.com", "Sunny2024")
	h := newTestAuthHandler(store)

	cases := []struct {
		name string
		body string
		code string
	}{
		{"unknown user", `{"usernameOrEmail":"ghost","password":"Sunny2024"}`, "invalid_credentials"},
		{"wrong password", `{"usernameOrEmail":"bob","password":"WrongPass1"}`, "invalid_credentials"},
		{"disabled account", `{"usernameOrEmail":"alice","password":"Sunny2024"}`, "account_disabled"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.Login, "/auth/login", tc.body)
			require.Equal(t, http.StatusUnauthorized, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, auth.UniformLoginMessage, body["message"])
			assert.Equal(t, tc.code, body["errorCode"])
		})
	}
}

func TestLoginMissingFields(t *testing.T) {
	h := newTestAuthHandler(newMemUserStore())

	rec := postJSON(t, h.Login, "/auth/login", `{"usernameOrEmail":"","password":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeBody(t, rec)["errorCode"])
}

func TestSignUpSuccess(t *testing.T) {
	store := newMemUserStore()
	h := newTestAuthHandler(store)

	rec := postJSON(t, h.SignUp, "/auth/sign-up",
		`{"username":"carol","email":"carol@example.com","password":"Sunny2024","confirmPassword":"Sunny2024","firstname":"Carol"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "carol", body["username"])
	assert.NotEmpty(t, body["token"])

	stored := store.users["carol"]
	require.NotNil(t, stored)
	assert.Equal(t, []string{model.RoleUser}, stored.RoleNames())
	assert.NotEqual(t, "Sunny2024", stored.PasswordHash)
}

func TestSignUpWeakPassword(t *testing.T) {
	h := newTestAuthHandler(newMemUserStore())

	rec := postJSON(t, h.SignUp, "/auth/sign-up",
		`{"username":"carol","email":"carol@example.com","password":"short1","confirmPassword":"short1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeBody(t, rec)["errorCode"])
}

func TestSignUpDuplicateUsername(t *testing.T) {
	store := newMemUserStore()
	store.seed(t, "carol", "carol@example.com", "Sunny2024")
	h := newTestAuthHandler(store)

	rec := postJSON(t, h.SignUp, "/auth/sign-up",
		`{"username":"carol","email":"new@example.com","password":"Sunny2024","confirmPassword":"Sunny2024"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "data_integrity_violation", decodeBody(t, rec)["errorCode"])
}

func TestSignUpBadBirthDate(t *testing.T) {
	h := newTestAuthHandler(newMemUserStore())

	rec := postJSON(t, h.SignUp, "/auth/sign-up",
		`{"username":"carol","email":"carol@example.com","password":"Sunny2024","confirmPassword":"Sunny2024","birthDate":"31-12-1990"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
