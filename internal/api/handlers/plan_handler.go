package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/bevops/truckplan/internal/planning"
	"github.com/bevops/truckplan/internal/service"
)

// PlanHandler serves the projected ledger, KPIs and the replan action.
type PlanHandler struct {
	service *service.PlanningService
}

func NewPlanHandler(service *service.PlanningService) *PlanHandler {
	return &PlanHandler{service: service}
}

func (h *PlanHandler) planDate(c *gin.Context) string {
	if date := strings.TrimSpace(c.Query("date")); date != "" {
		return date
	}
	return h.service.Today()
}

// GetLedger returns the 30-day projected daily ledger.
func (h *PlanHandler) GetLedger(c *gin.Context) {
	sku := c.Param("sku")
	planDate := h.planDate(c)

	projection, err := h.service.GetProjection(c.Request.Context(), sku, planDate)
	if err != nil {
		respondEngineError(c, sku, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sku":       sku,
		"plan_date": planDate,
		"ledger":    projection.Ledger,
	})
}

// GetKPIs returns the projection summary for dashboards.
func (h *PlanHandler) GetKPIs(c *gin.Context) {
	sku := c.Param("sku")
	planDate := h.planDate(c)

	projection, err := h.service.GetProjection(c.Request.Context(), sku, planDate)
	if err != nil {
		respondEngineError(c, sku, err)
		return
	}

	c.JSON(http.StatusOK, projection.KPIs(sku))
}

// GetPlannedOrders returns deliveries planned but not yet confirmed by a
// purchase order.
func (h *PlanHandler) GetPlannedOrders(c *gin.Context) {
	sku := c.Param("sku")
	planDate := h.planDate(c)

	projection, err := h.service.GetProjection(c.Request.Context(), sku, planDate)
	if err != nil {
		respondEngineError(c, sku, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sku":            sku,
		"plan_date":      planDate,
		"planned_orders": projection.PlannedOrders,
	})
}

type replanRequest struct {
	Date  string `json:"date"`
	Apply bool   `json:"apply"`
}

// Replan runs the project/solve loop; with apply=true the patched plan is
// persisted.
func (h *PlanHandler) Replan(c *gin.Context) {
	sku := c.Param("sku")

	var req replanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An empty or absent body is fine: default to a dry run for today.
		req = replanRequest{}
	}
	planDate := req.Date
	if planDate == "" {
		planDate = h.service.Today()
	}

	result, err := h.service.Replan(c.Request.Context(), sku, planDate, req.Apply)
	if err != nil {
		respondEngineError(c, sku, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// respondEngineError maps engine failures to API responses. A missing product
// spec is the recoverable "complete setup first" condition, not a server
// fault.
func respondEngineError(c *gin.Context, sku string, err error) {
	if errors.Is(err, planning.ErrNoSpec) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "product spec not configured for " + sku,
		})
		return
	}
	log.Error().Err(err).Str("sku", sku).Msg("plan request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
