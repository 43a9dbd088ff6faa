package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	apirest "github.com/morwengames/chronicle/api/rest"
	"github.com/morwengames/chronicle/audit"
	"github.com/morwengames/chronicle/cache"
	"github.com/morwengames/chronicle/config"
	dbadapter "github.com/morwengames/chronicle/db"
	"github.com/morwengames/chronicle/history"
	mw "github.com/morwengames/chronicle/middleware"
	"github.com/morwengames/chronicle/model"
	"github.com/morwengames/chronicle/progression"
	"github.com/morwengames/chronicle/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(nil)

	// ---- Cache ----
	c, err := cache.NewCache(cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
	})
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()
	sched.AddTicker("audit_purge", cfg.Audit.PurgeInterval, func() {
		if _, err := auditSvc.PurgeOlderThan(cfg.Audit.Retention); err != nil {
			logger.Error("scheduled audit purge failed", zap.Error(err))
		}
	})

	// ---- Services ----
	hist := history.New(db, logger, cfg.Game.HistoryBlockSize)
	prog := progression.New(db, hist, logger)

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))
	r.Use(mw.CORS(cfg.Security.AllowedOrigins))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(db, c, cfg.Security, logger)
	charH := apirest.NewCharacterHandler(prog, cfg.Game, logger)
	sheetH := apirest.NewSheetHandler(prog, logger)
	levelH := apirest.NewLevelHandler(prog, logger)
	histH := apirest.NewHistoryHandler(prog, logger)
	adminH := apirest.NewAdminHandler(db, auditSvc, sched, cfg.Audit, logger)

	api := r.Group("/api")
	api.Use(apirest.AuditTrail(auditSvc))
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", mw.Auth(cfg.Security, c), authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		charsG := api.Group("/characters")
		charsG.Use(mw.Auth(cfg.Security, c))
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
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/audit/purge", adminH.PurgeAudit)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("HTTP server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
