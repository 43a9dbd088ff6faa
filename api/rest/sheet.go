package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	mw "github.com/morwengames/chronicle/middleware"
	"github.com/morwengames/chronicle/progression"
	"go.uber.org/zap"
)

// SheetHandler handles the per-fact mutation endpoints of a character
// sheet: attributes, skills, combat values, base values, calculation
// points and special abilities.
type SheetHandler struct {
	svc    *progression.Service
	logger *zap.Logger
}

// NewSheetHandler creates a new SheetHandler.
func NewSheetHandler(svc *progression.Service, logger *zap.Logger) *SheetHandler {
	return &SheetHandler{svc: svc, logger: logger}
}

type attributeRequest struct {
	InitialCurrent int  `json:"initialCurrent" binding:"min=0"`
	Increase       int  `json:"increase" binding:"min=0"`
	Mod            *int `json:"mod"`
}

// PatchAttribute handles PATCH /api/characters/:id/attributes/:name.
func (h *SheetHandler) PatchAttribute(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req attributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, rec, err := h.svc.IncreaseAttribute(accountID, c.Param("id"), c.Param("name"),
		req.InitialCurrent, req.Increase, req.Mod)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}

type activateSkillRequest struct {
	LearningMethod string `json:"learningMethod" binding:"required"`
}

// ActivateSkill handles POST /api/characters/:id/skills/:category/:name/activation.
func (h *SheetHandler) ActivateSkill(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req activateSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, rec, err := h.svc.ActivateSkill(accountID, c.Param("id"),
		c.Param("category"), c.Param("name"), req.LearningMethod)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}

type skillRequest struct {
	InitialCurrent int    `json:"initialCurrent" binding:"min=0"`
	Increase       int    `json:"increase" binding:"min=0"`
	LearningMethod string `json:"learningMethod" binding:"required"`
	Mod            *int   `json:"mod"`
}

// PatchSkill handles PATCH /api/characters/:id/skills/:category/:name.
func (h *SheetHandler) PatchSkill(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req skillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, rec, err := h.svc.IncreaseSkill(accountID, c.Param("id"),
		c.Param("category"), c.Param("name"),
		req.InitialCurrent, req.Increase, req.LearningMethod, req.Mod)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}

type combatValueRequest struct {
	InitialAvailablePoints int `json:"initialAvailablePoints" binding:"min=0"`
	Attack                 int `json:"attack" binding:"min=0"`
	Parade                 int `json:"parade" binding:"min=0"`
}

// PatchCombatValue handles PATCH /api/characters/:id/combat-values/:group/:name.
func (h *SheetHandler) PatchCombatValue(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req combatValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, rec, err := h.svc.DistributeCombatPoints(accountID, c.Param("id"),
		c.Param("group"), c.Param("name"),
		req.InitialAvailablePoints, req.Attack, req.Parade)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}

type grantCombatPointsRequest struct {
	Points int `json:"points" binding:"required,min=1"`
}

// GrantCombatPoints handles POST /api/characters/:id/combat-values/:group/:name/points.
func (h *SheetHandler) GrantCombatPoints(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req grantCombatPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, rec, err := h.svc.GrantCombatPoints(accountID, c.Param("id"),
		c.Param("group"), c.Param("name"), req.Points)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}

type baseValueRequest struct {
	InitialCurrent int  `json:"initialCurrent"`
	Current        *int `json:"current"`
	Mod            *int `json:"mod"`
}

// PatchBaseValue handles PATCH /api/characters/:id/base-values/:name.
// Only manually tracked base values; formula-derived ones reject.
func (h *SheetHandler) PatchBaseValue(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req baseValueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, rec, err := h.svc.UpdateBaseValue(accountID, c.Param("id"), c.Param("name"),
		req.InitialCurrent, req.Current, req.Mod)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}

type pointsDeltaRequest struct {
	InitialAvailable int `json:"initialAvailable"`
	Delta            int `json:"delta"`
}

type calculationPointsRequest struct {
	AdventurePoints *pointsDeltaRequest `json:"adventurePoints"`
	AttributePoints *pointsDeltaRequest `json:"attributePoints"`
}

// PatchCalculationPoints handles PATCH /api/characters/:id/calculation-points.
func (h *SheetHandler) PatchCalculationPoints(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req calculationPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var adventure, attribute *progression.PointsDelta
	if req.AdventurePoints != nil {
		adventure = &progression.PointsDelta{
			InitialAvailable: req.AdventurePoints.InitialAvailable,
			Delta:            req.AdventurePoints.Delta,
		}
	}
	if req.AttributePoints != nil {
		attribute = &progression.PointsDelta{
			InitialAvailable: req.AttributePoints.InitialAvailable,
			Delta:            req.AttributePoints.Delta,
		}
	}

	result, rec, err := h.svc.UpdateCalculationPoints(accountID, c.Param("id"), adventure, attribute)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}

type specialAbilitiesRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

// PutSpecialAbilities handles PUT /api/characters/:id/special-abilities.
func (h *SheetHandler) PutSpecialAbilities(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req specialAbilitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, rec, err := h.svc.UpdateSpecialAbilities(accountID, c.Param("id"), req.Add, req.Remove)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}
