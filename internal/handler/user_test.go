package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A handler invoked without a principal answers with the same errorCode the
// route policy uses, so every unauthenticated path reads identically to the
// client.
func TestProfileWithoutPrincipal(t *testing.T) {
	h := NewUserHandler(nil, 4)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/user", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Profile(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decodeBody(t, rec)["errorCode"])
}
