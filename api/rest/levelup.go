package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/morwengames/chronicle/middleware"
	"github.com/morwengames/chronicle/progression"
	"go.uber.org/zap"
)

// LevelHandler handles level and level-up endpoints.
type LevelHandler struct {
	svc    *progression.Service
	logger *zap.Logger
}

// NewLevelHandler creates a new LevelHandler.
func NewLevelHandler(svc *progression.Service, logger *zap.Logger) *LevelHandler {
	return &LevelHandler{svc: svc, logger: logger}
}

type levelRequest struct {
	InitialLevel int `json:"initialLevel" binding:"required,min=1"`
}

// IncreaseLevel handles POST /api/characters/:id/level — a plain +1
// without an effect selection.
func (h *LevelHandler) IncreaseLevel(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req levelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, rec, err := h.svc.IncreaseLevel(accountID, c.Param("id"), req.InitialLevel)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}

// Offer handles GET /api/characters/:id/level-up: the effect options
// for the next level plus the optimistic options hash the commit must
// echo back.
func (h *LevelHandler) Offer(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	offer, err := h.svc.LevelUpOffer(accountID, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

type levelUpCommitRequest struct {
	InitialLevel   int    `json:"initialLevel" binding:"required,min=1"`
	SelectedEffect string `json:"selectedEffect" binding:"required"`
	Roll           *int   `json:"roll"`
	OptionsHash    string `json:"optionsHash" binding:"required"`
}

// Commit handles POST /api/characters/:id/level-up: advances the level
// by one and applies the selected effect in a single history record.
func (h *LevelHandler) Commit(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req levelUpCommitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, rec, err := h.svc.LevelUpCommit(accountID, c.Param("id"),
		req.InitialLevel, req.SelectedEffect, req.Roll, req.OptionsHash)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}
