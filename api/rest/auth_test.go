package rest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginAutoRegister(t *testing.T) {
	r := newRouter(t)

	w := postJSON(r, "/api/auth/login", map[string]string{"username": "alice", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.NotEmpty(t, resp["token"])
	assert.NotNil(t, resp["account_id"])

	// Second login with the same password succeeds.
	w = postJSON(r, "/api/auth/login", map[string]string{"username": "alice", "password": "secret1"})
	assert.Equal(t, http.StatusOK, w.Code)

	// Wrong password is rejected.
	w = postJSON(r, "/api/auth/login", map[string]string{"username": "alice", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginValidation(t *testing.T) {
	r := newRouter(t)

	w := postJSON(r, "/api/auth/login", map[string]string{"username": "x", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/api/auth/login", map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "carol", "secret1")

	w := doRequest(r, http.MethodGet, "/api/characters", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/api/auth/logout", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/characters", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "dave", "secret1")

	w := doRequest(r, http.MethodPost, "/api/auth/refresh", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	newToken := resp["token"].(string)
	require.NotEmpty(t, newToken)

	// Old token is dead, new one works.
	w = doRequest(r, http.MethodGet, "/api/characters", nil, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = doRequest(r, http.MethodGet, "/api/characters", nil, newToken)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthRequired(t *testing.T) {
	r := newRouter(t)

	w := doRequest(r, http.MethodGet, "/api/characters", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodGet, "/api/characters", nil, "garbage-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
