package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/morwengames/chronicle/audit"
	"github.com/morwengames/chronicle/config"
	"github.com/morwengames/chronicle/model"
	"github.com/morwengames/chronicle/scheduler"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db     *gorm.DB
	auditS *audit.Service
	sched  *scheduler.Scheduler
	cfg    config.AuditConfig
	logger *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, auditS *audit.Service, sched *scheduler.Scheduler, cfg config.AuditConfig, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, auditS: auditS, sched: sched, cfg: cfg, logger: logger}
}

// Metrics returns store-level counters.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	counts := map[string]int64{}
	for name, value := range map[string]interface{}{
		"accounts":       &model.Account{},
		"characters":     &model.Character{},
		"history_blocks": &model.HistoryBlock{},
		"audit_logs":     &model.AuditLog{},
	} {
		var n int64
		if err := h.db.Model(value).Count(&n).Error; err != nil {
			h.logger.Error("metrics count failed", zap.String("table", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
			return
		}
		counts[name] = n
	}
	c.JSON(http.StatusOK, gin.H{
		"counts":          counts,
		"scheduler_tasks": h.sched.ListTickers(),
	})
}

// PurgeAudit removes audit rows past the retention window immediately,
// without waiting for the scheduled purge.
// POST /api/admin/audit/purge
func (h *AdminHandler) PurgeAudit(c *gin.Context) {
	purged, err := h.auditS.PurgeOlderThan(h.cfg.Retention)
	if err != nil {
		h.logger.Error("audit purge failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "purge failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purged": purged})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled"})
			return
		}
		if c.GetHeader("X-Admin-Key") != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
