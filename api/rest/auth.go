package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/morwengames/chronicle/cache"
	"github.com/morwengames/chronicle/config"
	"github.com/morwengames/chronicle/errs"
	mw "github.com/morwengames/chronicle/middleware"
	"github.com/morwengames/chronicle/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler handles login, logout and token refresh. Sessions live in
// the cache as "session:<token>" keys with the token's TTL; the auth
// middleware only accepts tokens whose session key still exists.
type AuthHandler struct {
	db     *gorm.DB
	cache  cache.Cache
	sec    config.SecurityConfig
	logger *zap.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec, logger: logger}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Login handles POST /api/auth/login.
// Auto-registers on first login if the username does not exist.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, h.logger, errs.Validation("%s", err.Error()))
		return
	}

	acc, err := h.authenticate(req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	token, err := h.openSession(c, acc.ID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	// Update last login (best-effort).
	now := time.Now()
	_ = h.db.Model(acc).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": c.ClientIP(),
	})

	h.logger.Info("account logged in",
		zap.Int64("account_id", acc.ID),
		zap.String("username", acc.Username),
	)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"account_id": acc.ID,
	})
}

// authenticate resolves the request to an account, creating one on
// first sight of the username.
func (h *AuthHandler) authenticate(req loginRequest) (*model.Account, error) {
	var acc model.Account
	err := h.db.Where("username = ?", req.Username).First(&acc).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), 12)
		if err != nil {
			return nil, errs.Internal(err, "hashing password")
		}
		acc = model.Account{
			Username:     req.Username,
			PasswordHash: string(hash),
			Status:       1,
		}
		if createErr := h.db.Create(&acc).Error; createErr != nil {
			// Unique constraint violation: another request registered
			// the same name first.
			if isUniqueViolation(createErr) {
				return nil, errs.Conflict("username already taken")
			}
			return nil, errs.Internal(createErr, "registering account")
		}
		return &acc, nil
	case err != nil:
		return nil, errs.Internal(err, "loading account")
	default:
		if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
			return nil, errs.Auth("invalid credentials")
		}
		if acc.Status == 0 {
			return nil, errs.Auth("account banned")
		}
		return &acc, nil
	}
}

// openSession issues a token and registers its session key.
func (h *AuthHandler) openSession(c *gin.Context, accountID int64) (string, error) {
	token, err := mw.GenerateToken(accountID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		return "", errs.Internal(err, "signing token")
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, "session:"+token, strconv.FormatInt(accountID, 10), h.sec.JWTTTLH); err != nil {
		return "", errs.Internal(err, "storing session")
	}
	return token, nil
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenStr := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if tokenStr == "" {
		writeError(c, h.logger, errs.Validation("missing token"))
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+tokenStr)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh. The presented token's session
// is closed and a fresh token opens a new one, so refresh always
// rotates the credential.
func (h *AuthHandler) Refresh(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		writeError(c, h.logger, errs.Auth("unauthorized"))
		return
	}

	oldToken := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+oldToken)

	newToken, err := h.openSession(c, accountID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": newToken})
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
