package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/morwengames/chronicle/errs"
	mw "github.com/morwengames/chronicle/middleware"
	"github.com/morwengames/chronicle/model"
	"github.com/morwengames/chronicle/progression"
	"go.uber.org/zap"
)

// HistoryHandler handles the read side of the history ledger plus the
// two write operations it allows: record comments and reverts.
type HistoryHandler struct {
	svc    *progression.Service
	logger *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(svc *progression.Service, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{svc: svc, logger: logger}
}

// List handles GET /api/characters/:id/history?limit=&before=&type=.
// items is a page of whole blocks, newest first; limit counts blocks,
// before=N excludes blocks from N upward. Clients page backwards by
// echoing previousBlockNumber, which points at the block just below the
// oldest one returned. type keeps only records of that type inside each
// returned block.
func (h *HistoryHandler) List(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	charID := c.Param("id")

	// Ownership check before touching the ledger.
	if _, _, err := h.svc.GetCharacter(accountID, charID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	before := 0
	if raw := c.Query("before"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, h.logger, errs.Validation("before must be a block number"))
			return
		}
		before = n
	}
	limit := 1
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(c, h.logger, errs.Validation("limit must be a positive block count"))
			return
		}
		limit = n
	}

	blocks, err := h.svc.History().Page(charID, before, limit)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	if typ := c.Query("type"); typ != "" {
		want, ok := model.ParseRecordType(typ)
		if !ok {
			writeError(c, h.logger, errs.Validation("unknown record type %s", typ))
			return
		}
		for i := range blocks {
			records, err := blocks[i].Records()
			if err != nil {
				writeError(c, h.logger, errs.Internal(err, "decoding block %d", blocks[i].BlockNumber))
				return
			}
			filtered := make([]model.Record, 0, len(records))
			for _, rec := range records {
				if rec.Type == want {
					filtered = append(filtered, rec)
				}
			}
			if err := blocks[i].SetRecords(filtered); err != nil {
				writeError(c, h.logger, errs.Internal(err, "encoding block %d", blocks[i].BlockNumber))
				return
			}
		}
	}

	resp := gin.H{
		"items":               blocks,
		"previousBlockNumber": nil,
		"previousBlockId":     nil,
	}
	if len(blocks) > 0 {
		oldest := blocks[len(blocks)-1]
		if oldest.BlockNumber > 1 {
			resp["previousBlockNumber"] = oldest.BlockNumber - 1
			resp["previousBlockId"] = oldest.PreviousBlockID
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Block handles GET /api/characters/:id/history/:blockNumber.
func (h *HistoryHandler) Block(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	charID := c.Param("id")

	if _, _, err := h.svc.GetCharacter(accountID, charID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	n, err := strconv.Atoi(c.Param("blockNumber"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid block number"})
		return
	}
	block, err := h.svc.History().ByBlockNumber(charID, n)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, block)
}

type commentRequest struct {
	Comment *string `json:"comment"`
}

// Comment handles PUT /api/characters/:id/history/records/:recordId/comment.
// A null comment clears it; everything else about a record is immutable.
func (h *HistoryHandler) Comment(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	charID := c.Param("id")

	if _, _, err := h.svc.GetCharacter(accountID, charID); err != nil {
		writeError(c, h.logger, err)
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, err := h.svc.History().SetComment(charID, c.Param("recordId"), req.Comment)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Revert handles POST /api/characters/:id/history/revert: undoes the
// latest record as a new forward mutation.
func (h *HistoryHandler) Revert(c *gin.Context) {
	accountID := mw.GetAccountID(c)

	result, rec, err := h.svc.RevertLatest(accountID, c.Param("id"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	writeMutation(c, http.StatusOK, result, rec)
}
