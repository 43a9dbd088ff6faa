package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	apirest "github.com/morwengames/chronicle/api/rest"
	"github.com/morwengames/chronicle/audit"
	"github.com/morwengames/chronicle/cache"
	"github.com/morwengames/chronicle/config"
	"github.com/morwengames/chronicle/history"
	mw "github.com/morwengames/chronicle/middleware"
	"github.com/morwengames/chronicle/progression"
	"github.com/morwengames/chronicle/scheduler"
	"github.com/morwengames/chronicle/testutil"
)

// AdminKey protects the admin routes of every test server.
const AdminKey = "integration-admin-key"

// TestServer wraps a real HTTP server with the full service stack wired
// together the way main.go does it.
type TestServer struct {
	DB     *gorm.DB
	Cache  cache.Cache
	Audit  *audit.Service
	Server *httptest.Server
	URL    string
	Sec    config.SecurityConfig
	Game   config.GameConfig
}

// NewTestServer creates a fully wired server for integration testing.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.SetupTestDB(t)
	c := testutil.SetupTestCache(t)
	logger := zap.NewNop()

	sec := config.SecurityConfig{
		JWTSecret:      "integration-test-secret",
		JWTTTLH:        72 * time.Hour,
		RateLimitRPS:   1000,
		RateLimitBurst: 2000,
		AllowedOrigins: []string{},
	}
	game := config.GameConfig{
		HistoryBlockSize: 5,
		MaxCharacters:    10,
	}

	auditSvc := audit.New(db, logger)
	t.Cleanup(func() { auditSvc.Stop(nil) })
	sched := scheduler.New(logger)
	t.Cleanup(sched.Stop)

	hist := history.New(db, logger, game.HistoryBlockSize)
	prog := progression.New(db, hist, logger)

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(sec.RateLimitRPS), sec.RateLimitBurst))
	r.Use(mw.CORS(sec.AllowedOrigins))

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	authH := apirest.NewAuthHandler(db, c, sec, logger)
	charH := apirest.NewCharacterHandler(prog, game, logger)
	sheetH := apirest.NewSheetHandler(prog, logger)
	levelH := apirest.NewLevelHandler(prog, logger)
	histH := apirest.NewHistoryHandler(prog, logger)
	adminH := apirest.NewAdminHandler(db, auditSvc, sched, config.AuditConfig{Retention: 30 * 24 * time.Hour}, logger)

	api := r.Group("/api")
	api.Use(apirest.AuditTrail(auditSvc))
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(sec, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(sec, c), authH.Refresh)

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
		adminG.Use(apirest.AdminAuth(AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/audit/purge", adminH.PurgeAudit)
	}

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &TestServer{
		DB:     db,
		Cache:  c,
		Audit:  auditSvc,
		Server: server,
		URL:    server.URL,
		Sec:    sec,
		Game:   game,
	}
}

// --- HTTP helpers ---

// Do sends a request with an optional JSON body and Bearer token.
func (ts *TestServer) Do(t *testing.T, method, path string, body interface{}, token string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.URL+path, bodyReader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (ts *TestServer) Get(t *testing.T, path, token string) *http.Response {
	return ts.Do(t, http.MethodGet, path, nil, token)
}

func (ts *TestServer) PostJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	return ts.Do(t, http.MethodPost, path, body, token)
}

func (ts *TestServer) PatchJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	return ts.Do(t, http.MethodPatch, path, body, token)
}

func (ts *TestServer) PutJSON(t *testing.T, path string, body interface{}, token string) *http.Response {
	return ts.Do(t, http.MethodPut, path, body, token)
}

// ReadJSON reads and decodes a JSON response body into the given target.
func ReadJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target), "body: %s", string(data))
}

// --- Auth helpers ---

// Login logs in (auto-registers on first call) and returns the token and account ID.
func (ts *TestServer) Login(t *testing.T, username, password string) (token string, accountID int64) {
	t.Helper()
	resp := ts.PostJSON(t, "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]interface{}
	ReadJSON(t, resp, &result)
	token = result["token"].(string)
	accountID = int64(result["account_id"].(float64))
	return
}

// CreateCharacter creates a character and returns its ID.
func (ts *TestServer) CreateCharacter(t *testing.T, token, name string) string {
	t.Helper()
	resp := ts.PostJSON(t, "/api/characters", map[string]string{"name": name}, token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	ReadJSON(t, resp, &result)
	require.NotEmpty(t, result.Data.ID)
	return result.Data.ID
}

var uniqueCounter uint64

// UniqueID returns a short unique string suitable for usernames and
// character names, so parallel tests never collide.
func UniqueID(prefix string) string {
	n := atomic.AddUint64(&uniqueCounter, 1)
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UnixNano()%1000000, n)
}
