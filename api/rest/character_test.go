package rest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetCharacter(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "erin", "secret1")

	w := doRequest(r, http.MethodPost, "/api/characters", map[string]string{"name": "Thorn"}, token)
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeBody(t, w)

	data := resp["data"].(map[string]interface{})
	charID := data["id"].(string)
	assert.Equal(t, "Thorn", data["name"])
	assert.EqualValues(t, 1, data["level"])

	// The creation appended a genesis history record.
	rec := resp["historyRecord"].(map[string]interface{})
	assert.Equal(t, "CHARACTER_CREATED", rec["type"])
	assert.EqualValues(t, 1, rec["number"])

	w = doRequest(r, http.MethodGet, "/api/characters/"+charID, nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody(t, w)
	sheet := resp["sheet"].(map[string]interface{})
	assert.Len(t, sheet["attributes"], 8)
}

func TestCreateCharacterValidation(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "frank", "secret1")

	w := doRequest(r, http.MethodPost, "/api/characters", map[string]string{}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMaxCharacters(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "grace", "secret1")

	for _, name := range []string{"One", "Two", "Three"} {
		createTestCharacter(t, r, token, name)
	}
	w := doRequest(r, http.MethodPost, "/api/characters", map[string]string{"name": "Four"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListCharacters(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "heidi", "secret1")
	createTestCharacter(t, r, token, "First")
	createTestCharacter(t, r, token, "Second")

	w := doRequest(r, http.MethodGet, "/api/characters", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.Len(t, resp["characters"], 2)
}

func TestCharacterOwnership(t *testing.T) {
	r := newRouter(t)
	ownerToken := loginAndGetToken(t, r, "ivan", "secret1")
	charID := createTestCharacter(t, r, ownerToken, "Mine")

	otherToken := loginAndGetToken(t, r, "judy", "secret1")
	w := doRequest(r, http.MethodGet, "/api/characters/"+charID, nil, otherToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(r, http.MethodPost, "/api/characters/"+charID+"/level",
		map[string]int{"initialLevel": 1}, otherToken)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCharacter(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "mallory", "secret1")
	charID := createTestCharacter(t, r, token, "Doomed")

	// Wrong password is rejected.
	w := doRequest(r, http.MethodDelete, "/api/characters/"+charID,
		map[string]string{"password": "nope42"}, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/characters/"+charID,
		map[string]string{"password": "secret1"}, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/api/characters/"+charID, nil, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
