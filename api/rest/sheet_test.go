package rest_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatchAttribute(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "nina", "secret1")
	charID := createTestCharacter(t, r, token, "Thorn")

	w := doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/attributes/strength",
		map[string]int{"initialCurrent": 10, "increase": 1}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)

	data := resp["data"].(map[string]interface{})
	attr := data["attribute"].(map[string]interface{})
	assert.EqualValues(t, 11, attr["current"])
	require.NotNil(t, resp["historyRecord"])

	// Replaying the request returns the state with a null record.
	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/attributes/strength",
		map[string]int{"initialCurrent": 10, "increase": 1}, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody(t, w)
	assert.Nil(t, resp["historyRecord"])

	// Stale token conflicts.
	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/attributes/strength",
		map[string]int{"initialCurrent": 10, "increase": 3}, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown attribute.
	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/attributes/luck",
		map[string]int{"initialCurrent": 10, "increase": 1}, token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSkillEndpoints(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "oscar", "secret1")
	charID := createTestCharacter(t, r, token, "Thorn")

	w := doRequest(r, http.MethodPost, "/api/characters/"+charID+"/skills/body/sneaking/activation",
		map[string]string{"learningMethod": "NORMAL"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	skill := data["skill"].(map[string]interface{})
	assert.Equal(t, true, skill["activated"])

	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/skills/body/sneaking",
		map[string]interface{}{"initialCurrent": 0, "increase": 2, "learningMethod": "NORMAL"}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp = decodeBody(t, w)
	data = resp["data"].(map[string]interface{})
	skill = data["skill"].(map[string]interface{})
	assert.EqualValues(t, 2, skill["current"])

	// Increasing a never-activated skill is a validation error.
	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/skills/body/swimming",
		map[string]interface{}{"initialCurrent": 0, "increase": 1, "learningMethod": "NORMAL"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown learning method.
	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/skills/body/sneaking",
		map[string]interface{}{"initialCurrent": 2, "increase": 1, "learningMethod": "BARGAIN"}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCombatValueEndpoints(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "peggy", "secret1")
	charID := createTestCharacter(t, r, token, "Thorn")

	w := doRequest(r, http.MethodPost, "/api/characters/"+charID+"/combat-values/melee/swords/points",
		map[string]int{"points": 5}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/combat-values/melee/swords",
		map[string]int{"initialAvailablePoints": 5, "attack": 3, "parade": 2}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	value := data["value"].(map[string]interface{})
	assert.EqualValues(t, 3, value["attackValue"])
	assert.EqualValues(t, 2, value["paradeValue"])
	assert.EqualValues(t, 0, value["availablePoints"])

	// Spending from an empty pool conflicts.
	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/combat-values/melee/swords",
		map[string]int{"initialAvailablePoints": 0, "attack": 1, "parade": 0}, token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBaseValueEndpoint(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "quentin", "secret1")
	charID := createTestCharacter(t, r, token, "Thorn")

	w := doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/base-values/armorLevel",
		map[string]int{"initialCurrent": 0, "current": 2}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	value := data["value"].(map[string]interface{})
	assert.EqualValues(t, 2, value["current"])

	// Formula-derived base values reject direct writes.
	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/base-values/healthPoints",
		map[string]int{"initialCurrent": 15, "current": 99}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalculationPointsEndpoint(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "rupert", "secret1")
	charID := createTestCharacter(t, r, token, "Thorn")

	w := doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/calculation-points",
		map[string]interface{}{
			"adventurePoints": map[string]int{"initialAvailable": 100, "delta": -30},
		}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	cp := data["calculationPoints"].(map[string]interface{})
	ap := cp["adventurePoints"].(map[string]interface{})
	assert.EqualValues(t, 70, ap["available"])
	assert.EqualValues(t, 100, ap["total"])

	// Overdraw conflicts.
	w = doRequest(r, http.MethodPatch, "/api/characters/"+charID+"/calculation-points",
		map[string]interface{}{
			"adventurePoints": map[string]int{"initialAvailable": 70, "delta": -200},
		}, token)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSpecialAbilitiesEndpoint(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "sybil", "secret1")
	charID := createTestCharacter(t, r, token, "Thorn")

	w := doRequest(r, http.MethodPut, "/api/characters/"+charID+"/special-abilities",
		map[string][]string{"add": {"Darkvision"}}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	data := resp["data"].(map[string]interface{})
	assert.Len(t, data["specialAbilities"], 1)
	require.NotNil(t, resp["historyRecord"])

	// Adding the same ability again logs nothing.
	w = doRequest(r, http.MethodPut, "/api/characters/"+charID+"/special-abilities",
		map[string][]string{"add": {"Darkvision"}}, token)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeBody(t, w)
	assert.Nil(t, resp["historyRecord"])
}
