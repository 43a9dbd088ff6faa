// Package rest implements the HTTP surface. Handlers are thin: they
// bind the request, call one progression or history operation and
// translate the error taxonomy into status codes. Mutation responses
// share one shape: {data, historyRecord}, with historyRecord null when
// the request was an idempotent replay.
package rest

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/morwengames/chronicle/audit"
	"github.com/morwengames/chronicle/errs"
	mw "github.com/morwengames/chronicle/middleware"
	"github.com/morwengames/chronicle/model"
	"go.uber.org/zap"
)

// writeError maps a service error onto an HTTP status. Internal causes
// are logged and never leak into the response body.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var e *errs.Error
	if !errors.As(err, &e) {
		logger.Error("unclassified error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	var status int
	switch {
	case errors.Is(e, errs.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(e, errs.ErrAuth):
		status = http.StatusUnauthorized
	case errors.Is(e, errs.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(e, errs.ErrConflict):
		status = http.StatusConflict
	default:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		logger.Error("internal error",
			zap.String("message", e.Message()),
			zap.Error(e.Cause()),
		)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": e.Message()})
}

// writeMutation is the shared response shape of every mutation
// endpoint. rec is nil for idempotent replays and the client reads that
// as "nothing new happened".
func writeMutation(c *gin.Context, status int, data interface{}, rec *model.Record) {
	c.JSON(status, gin.H{
		"data":          data,
		"historyRecord": rec,
	})
}

// AuditTrail records every request passing through it to the audit
// service, after the handler ran. The write is asynchronous and never
// blocks the response.
func AuditTrail(svc *audit.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := audit.Entry{
			TraceID:     mw.GetTraceID(c),
			CharacterID: c.Param("id"),
			Action:      c.Request.Method + " " + c.FullPath(),
			Response:    gin.H{"status": c.Writer.Status()},
			IP:          c.ClientIP(),
			DurationMs:  int(time.Since(start).Milliseconds()),
		}
		if accountID := mw.GetAccountID(c); accountID != 0 {
			entry.AccountID = &accountID
		}
		if len(c.Errors) > 0 {
			entry.Error = c.Errors.String()
		}
		svc.Log(entry)
	}
}
