package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bevops/truckplan/internal/api/handlers"
	"github.com/bevops/truckplan/internal/api/middleware"
	"github.com/bevops/truckplan/internal/service"
)

func NewRouter(planningService *service.PlanningService, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Logger(),
		middleware.Recovery(),
	)

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if planningService != nil {
		planHandler := handlers.NewPlanHandler(planningService)
		scheduleHandler := handlers.NewScheduleHandler(planningService)

		apiGroup.GET("/skus", scheduleHandler.ListSKUs)

		planGroup := apiGroup.Group("/plan")
		{
			planGroup.GET("/:sku/ledger", planHandler.GetLedger)
			planGroup.GET("/:sku/kpis", planHandler.GetKPIs)
			planGroup.GET("/:sku/planned_orders", planHandler.GetPlannedOrders)
			planGroup.POST("/:sku/replan", planHandler.Replan)
		}

		scheduleGroup := apiGroup.Group("/schedule")
		{
			scheduleGroup.PUT("/:sku/demand", scheduleHandler.PutDemand)
			scheduleGroup.POST("/:sku/actuals", scheduleHandler.PostActuals)
			scheduleGroup.PUT("/:sku/inbound", scheduleHandler.PutInbound)
		}

		inventoryGroup := apiGroup.Group("/inventory")
		{
			inventoryGroup.POST("/:sku/anchor", scheduleHandler.PostAnchor)
			inventoryGroup.POST("/:sku/yard", scheduleHandler.PostYard)
		}

		settingsGroup := apiGroup.Group("/settings")
		{
			settingsGroup.GET("/:sku", scheduleHandler.GetSettings)
			settingsGroup.PUT("/:sku", scheduleHandler.PutSettings)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
