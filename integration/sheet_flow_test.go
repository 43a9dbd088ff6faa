package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharacterProgressionFlow(t *testing.T) {
	ts := NewTestServer(t)

	token, _ := ts.Login(t, UniqueID("prog"), "pass1234")
	charID := ts.CreateCharacter(t, token, UniqueID("Mira"))
	base := "/api/characters/" + charID

	// Fresh sheet has the starting pools.
	resp := ts.Get(t, base, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var char struct {
		Level int `json:"level"`
		Sheet struct {
			Attributes map[string]struct {
				Current int `json:"current"`
			} `json:"attributes"`
			CalculationPoints struct {
				AdventurePoints struct {
					Available int `json:"available"`
				} `json:"adventurePoints"`
				AttributePoints struct {
					Available int `json:"available"`
				} `json:"attributePoints"`
			} `json:"calculationPoints"`
		} `json:"sheet"`
	}
	ReadJSON(t, resp, &char)
	require.Equal(t, 1, char.Level)
	require.Len(t, char.Sheet.Attributes, 8)
	require.Equal(t, 10, char.Sheet.Attributes["strength"].Current)
	require.Equal(t, 100, char.Sheet.CalculationPoints.AdventurePoints.Available)
	require.Equal(t, 20, char.Sheet.CalculationPoints.AttributePoints.Available)

	// Raise an attribute and pay attribute points for it.
	resp = ts.PatchJSON(t, base+"/attributes/strength", map[string]interface{}{
		"initialCurrent": 10,
		"increase":       2,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mut struct {
		Data          map[string]interface{} `json:"data"`
		HistoryRecord map[string]interface{} `json:"historyRecord"`
	}
	ReadJSON(t, resp, &mut)
	require.NotNil(t, mut.HistoryRecord)
	assert.Equal(t, "ATTRIBUTE_CHANGED", mut.HistoryRecord["type"])

	// Activate a skill, then raise it.
	resp = ts.PostJSON(t, base+"/skills/body/sneaking/activation", map[string]string{
		"learningMethod": "NORMAL",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.PatchJSON(t, base+"/skills/body/sneaking", map[string]interface{}{
		"initialCurrent": 0,
		"increase":       1,
		"learningMethod": "NORMAL",
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ReadJSON(t, resp, &mut)
	require.NotNil(t, mut.HistoryRecord)
	assert.Equal(t, "SKILL_CHANGED", mut.HistoryRecord["type"])
	assert.Equal(t, "body/sneaking", mut.HistoryRecord["name"])

	// Level up through the offer/commit handshake.
	resp = ts.Get(t, base+"/level-up", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var offer struct {
		NextLevel   int    `json:"nextLevel"`
		OptionsHash string `json:"optionsHash"`
		Options     []struct {
			Effect  string `json:"effect"`
			Allowed bool   `json:"allowed"`
		} `json:"options"`
	}
	ReadJSON(t, resp, &offer)
	require.Equal(t, 2, offer.NextLevel)
	require.NotEmpty(t, offer.OptionsHash)
	require.NotEmpty(t, offer.Options)

	roll := 4
	resp = ts.PostJSON(t, base+"/level-up", map[string]interface{}{
		"initialLevel":   1,
		"selectedEffect": "hpRoll",
		"roll":           roll,
		"optionsHash":    offer.OptionsHash,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ReadJSON(t, resp, &mut)
	require.NotNil(t, mut.HistoryRecord)
	assert.Equal(t, "LEVEL_CHANGED", mut.HistoryRecord["type"])
	assert.Equal(t, float64(2), mut.Data["level"])

	// The consumed hash no longer commits.
	resp = ts.PostJSON(t, base+"/level-up", map[string]interface{}{
		"initialLevel":   2,
		"selectedEffect": "hpRoll",
		"roll":           roll,
		"optionsHash":    offer.OptionsHash,
	}, token)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestHistoryChainAcrossBlocks(t *testing.T) {
	ts := NewTestServer(t)

	token, _ := ts.Login(t, UniqueID("chain"), "pass1234")
	charID := ts.CreateCharacter(t, token, UniqueID("Ledger"))
	base := "/api/characters/" + charID

	// Block size is 5: creation plus 6 attribute bumps spills into block 2.
	for i := 0; i < 6; i++ {
		resp := ts.PatchJSON(t, base+"/attributes/agility", map[string]interface{}{
			"initialCurrent": 10 + i,
			"increase":       1,
		}, token)
		require.Equal(t, http.StatusOK, resp.StatusCode, "increase %d", i+1)
		resp.Body.Close()
	}

	// Latest page is block 2 holding the two newest records.
	resp := ts.Get(t, base+"/history", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Items []struct {
			BlockNumber     int     `json:"blockNumber"`
			PreviousBlockID *string `json:"previousBlockId"`
			Changes         []struct {
				Number int    `json:"number"`
				Type   string `json:"type"`
			} `json:"changes"`
		} `json:"items"`
		PreviousBlockNumber *int    `json:"previousBlockNumber"`
		PreviousBlockID     *string `json:"previousBlockId"`
	}
	ReadJSON(t, resp, &page)
	require.Len(t, page.Items, 1)
	require.Equal(t, 2, page.Items[0].BlockNumber)
	require.Len(t, page.Items[0].Changes, 2)
	assert.Equal(t, 7, page.Items[0].Changes[1].Number)
	require.NotNil(t, page.PreviousBlockNumber)
	assert.Equal(t, 1, *page.PreviousBlockNumber)
	require.NotNil(t, page.PreviousBlockID)

	// Page backwards to the genesis block.
	resp = ts.Get(t, fmt.Sprintf("%s/history?before=%d", base, page.Items[0].BlockNumber), token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ReadJSON(t, resp, &page)
	require.Len(t, page.Items, 1)
	require.Equal(t, 1, page.Items[0].BlockNumber)
	require.Len(t, page.Items[0].Changes, 5)
	assert.Equal(t, "CHARACTER_CREATED", page.Items[0].Changes[0].Type)
	assert.Nil(t, page.Items[0].PreviousBlockID)
	assert.Nil(t, page.PreviousBlockNumber)
	assert.Nil(t, page.PreviousBlockID)

	// Both blocks fit one page when limit covers the whole chain.
	resp = ts.Get(t, base+"/history?limit=10", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ReadJSON(t, resp, &page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Items[0].BlockNumber)
	assert.Equal(t, 1, page.Items[1].BlockNumber)
	assert.Nil(t, page.PreviousBlockNumber)
}

func TestRevertRoundTrip(t *testing.T) {
	ts := NewTestServer(t)

	token, _ := ts.Login(t, UniqueID("revert"), "pass1234")
	charID := ts.CreateCharacter(t, token, UniqueID("Undo"))
	base := "/api/characters/" + charID

	// Only the creation record exists, which is refused.
	resp := ts.PostJSON(t, base+"/history/revert", nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = ts.PatchJSON(t, base+"/attributes/courage", map[string]interface{}{
		"initialCurrent": 10,
		"increase":       1,
	}, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = ts.PostJSON(t, base+"/history/revert", nil, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var mut struct {
		HistoryRecord map[string]interface{} `json:"historyRecord"`
	}
	ReadJSON(t, resp, &mut)
	require.NotNil(t, mut.HistoryRecord)
	assert.Equal(t, "ATTRIBUTE_CHANGED", mut.HistoryRecord["type"])

	// The attribute is back at its starting value.
	resp = ts.Get(t, base, token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var char struct {
		Sheet struct {
			Attributes map[string]struct {
				Current int `json:"current"`
			} `json:"attributes"`
		} `json:"sheet"`
	}
	ReadJSON(t, resp, &char)
	assert.Equal(t, 10, char.Sheet.Attributes["courage"].Current)
}

func TestAdminMetricsOverHTTP(t *testing.T) {
	ts := NewTestServer(t)

	token, _ := ts.Login(t, UniqueID("admin"), "pass1234")
	ts.CreateCharacter(t, token, UniqueID("Counted"))

	req := ts.Do(t, http.MethodGet, "/api/admin/metrics", nil, "")
	assert.Equal(t, http.StatusUnauthorized, req.StatusCode)
	req.Body.Close()

	httpReq, err := http.NewRequest(http.MethodGet, ts.URL+"/api/admin/metrics", nil)
	require.NoError(t, err)
	httpReq.Header.Set("X-Admin-Key", AdminKey)
	resp, err := http.DefaultClient.Do(httpReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var metrics map[string]interface{}
	ReadJSON(t, resp, &metrics)
	counts := metrics["counts"].(map[string]interface{})
	assert.Equal(t, float64(1), counts["accounts"])
	assert.Equal(t, float64(1), counts["characters"])
}
