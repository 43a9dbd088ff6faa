package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/morwengames/chronicle/api/rest"
	"github.com/morwengames/chronicle/audit"
	"github.com/morwengames/chronicle/config"
	"github.com/morwengames/chronicle/history"
	mw "github.com/morwengames/chronicle/middleware"
	"github.com/morwengames/chronicle/progression"
	"github.com/morwengames/chronicle/scheduler"
	"github.com/morwengames/chronicle/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testAdminKey = "test-admin-key"

// newRouter wires the full API the way main does, against an isolated
// in-memory store.
func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()
	sec := config.SecurityConfig{JWTSecret: "test-secret", JWTTTLH: 72 * time.Hour}
	game := config.GameConfig{HistoryBlockSize: 3, MaxCharacters: 3}

	hist := history.New(db, logger, game.HistoryBlockSize)
	prog := progression.New(db, hist, logger)
	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(nil) })
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	authH := rest.NewAuthHandler(db, c, sec, logger)
	charH := rest.NewCharacterHandler(prog, game, logger)
	sheetH := rest.NewSheetHandler(prog, logger)
	levelH := rest.NewLevelHandler(prog, logger)
	histH := rest.NewHistoryHandler(prog, logger)
	adminH := rest.NewAdminHandler(db, auditSvc, sched, config.AuditConfig{Retention: time.Hour}, logger)

	r := gin.New()
	api := r.Group("/api")
	{
		api.POST("/auth/login", authH.Login)
		api.POST("/auth/logout", mw.Auth(sec, c), authH.Logout)
		api.POST("/auth/refresh", mw.Auth(sec, c), authH.Refresh)

		charsG := api.Group("/characters")
		charsG.Use(mw.Auth(sec, c))
		charsG.GET("", charH.List)
		charsG.POST("", charH.Create)
		charsG.GET("/:id", charH.Get)
		charsG.DELETE("/:id", charH.Delete)

		charsG.POST("/:id/level", levelH.IncreaseLevel)
		charsG.GET("/:id/level-up", levelH.Offer)
		charsG.POST("/:id/level-up", levelH.Commit)

		charsG.PATCH("/:id/attributes/:name", sheetH.PatchAttribute)
		charsG.POST("/:id/skills/:category/:name/activation", sheetH.ActivateSkill)
		charsG.PATCH("/:id/skills/:category/:name", sheetH.PatchSkill)
		charsG.PATCH("/:id/combat-values/:group/:name", sheetH.PatchCombatValue)
		charsG.POST("/:id/combat-values/:group/:name/points", sheetH.GrantCombatPoints)
		charsG.PATCH("/:id/base-values/:name", sheetH.PatchBaseValue)
		charsG.PATCH("/:id/calculation-points", sheetH.PatchCalculationPoints)
		charsG.PUT("/:id/special-abilities", sheetH.PutSpecialAbilities)

		charsG.GET("/:id/history", histH.List)
		charsG.GET("/:id/history/:blockNumber", histH.Block)
		charsG.PUT("/:id/history/records/:recordId/comment", histH.Comment)
		charsG.POST("/:id/history/revert", histH.Revert)

		adminG := api.Group("/admin")
		adminG.Use(rest.AdminAuth(testAdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/audit/purge", adminH.PurgeAudit)
	}
	return r
}

func doRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	return doRequest(r, http.MethodPost, path, body, "")
}

// loginAndGetToken registers/logs in and returns the JWT.
func loginAndGetToken(t *testing.T, r *gin.Engine, user, pass string) string {
	t.Helper()
	w := postJSON(r, "/api/auth/login", map[string]string{"username": user, "password": pass})
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["token"].(string)
}

// createTestCharacter creates a character and returns its id.
func createTestCharacter(t *testing.T, r *gin.Engine, token, name string) string {
	t.Helper()
	w := doRequest(r, http.MethodPost, "/api/characters", map[string]string{"name": name}, token)
	require.Equal(t, http.StatusCreated, w.Code, "create failed: %s", w.Body.String())
	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.ID)
	return resp.Data.ID
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}
