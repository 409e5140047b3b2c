package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/civicdesk/backend/internal/cache"
	"github.com/civicdesk/backend/internal/config"
	"github.com/civicdesk/backend/internal/dashboard"
	"github.com/civicdesk/backend/internal/db"
	"github.com/civicdesk/backend/internal/http/handlers"
	"github.com/civicdesk/backend/internal/http/middleware"
	"github.com/civicdesk/backend/internal/service"

	_ "github.com/civicdesk/backend/docs"
)

func Router(cfg config.Config, store *db.Store, intake *service.IntakeService, processor *service.ProcessingService, escalations *service.EscalationService, grid *dashboard.PressureGrid, summaryCache *cache.SummaryCache, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:       store,
		Intake:      intake,
		Processor:   processor,
		Escalations: escalations,
		Grid:        grid,
		Cache:       summaryCache,
		Validator:   validator.New(),
		Logger:      logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/complaints", h.SubmitComplaint)
		api.GET("/complaints", h.ComplaintsList)
		api.GET("/complaints/:id", h.ComplaintDetails)
		api.GET("/complaints/:id/progress", h.ComplaintProgress)
		api.GET("/dashboard/pressure", h.DashboardPressure)
		api.GET("/dashboard/summary", h.DashboardSummary)
		api.GET("/roles", h.RolesList)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/process", h.Process)
		admin.GET("/runs/latest", h.RunsLatest)
		admin.POST("/complaints/:id/status", h.SetStatus)
		admin.POST("/complaints/:id/escalate", h.Escalate)
		admin.POST("/complaints/:id/resolve", h.Resolve)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
