package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/morwengames/chronicle/config"
	mw "github.com/morwengames/chronicle/middleware"
	"github.com/morwengames/chronicle/progression"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CharacterHandler handles character sheet CRUD endpoints.
type CharacterHandler struct {
	svc    *progression.Service
	game   config.GameConfig
	logger *zap.Logger
}

// NewCharacterHandler creates a new CharacterHandler.
func NewCharacterHandler(svc *progression.Service, game config.GameConfig, logger *zap.Logger) *CharacterHandler {
	return &CharacterHandler{svc: svc, game: game, logger: logger}
}

// List handles GET /api/characters.
func (h *CharacterHandler) List(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	chars, err := h.svc.ListCharacters(accountID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"characters": chars})
}

type createCharacterRequest struct {
	Name string `json:"name" binding:"required,min=1,max=64"`
}

// Create handles POST /api/characters. The new sheet starts at level 1
// with rule defaults and a genesis history record.
func (h *CharacterHandler) Create(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req createCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	char, rec, err := h.svc.CreateCharacter(accountID, req.Name, h.game.MaxCharacters)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusCreated, char, rec)
}

// Get handles GET /api/characters/:id.
func (h *CharacterHandler) Get(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	char, doc, err := h.svc.GetCharacter(accountID, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":        char.ID,
		"name":      char.Name,
		"level":     char.Level,
		"sheet":     doc,
		"createdAt": char.CreatedAt,
	})
}

type deleteCharacterRequest struct {
	Password string `json:"password" binding:"required"`
}

// Delete handles DELETE /api/characters/:id. Deleting a character is
// irreversible (the history chain goes with it), so the account
// password is required as confirmation.
func (h *CharacterHandler) Delete(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	var req deleteCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password required"})
		return
	}

	hash, err := h.svc.AccountPasswordHash(accountID)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid password"})
		return
	}

	if err := h.svc.DeleteCharacter(accountID, c.Param("id")); err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
