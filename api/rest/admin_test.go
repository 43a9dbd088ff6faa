package rest_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/morwengames/chronicle/api/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminRequest(r *gin.Engine, method, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuth(t *testing.T) {
	r := newRouter(t)

	w := adminRequest(r, http.MethodGet, "/api/admin/metrics", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = adminRequest(r, http.MethodGet, "/api/admin/metrics", "wrong-key")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminAuthDisabledWithoutKey(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/admin/metrics", rest.AdminAuth(""), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := adminRequest(r, http.MethodGet, "/api/admin/metrics", "any-key")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAdminMetrics(t *testing.T) {
	r := newRouter(t)
	token := loginAndGetToken(t, r, "admin-user", "secret1")
	createTestCharacter(t, r, token, "Thorn")

	w := adminRequest(r, http.MethodGet, "/api/admin/metrics", testAdminKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decodeBody(t, w)
	counts := resp["counts"].(map[string]interface{})
	assert.EqualValues(t, 1, counts["accounts"])
	assert.EqualValues(t, 1, counts["characters"])
	assert.EqualValues(t, 1, counts["history_blocks"])
}

func TestAdminAuditPurge(t *testing.T) {
	r := newRouter(t)

	w := adminRequest(r, http.MethodPost, "/api/admin/audit/purge", testAdminKey)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeBody(t, w)
	assert.EqualValues(t, 0, resp["purged"])
}
