package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bevops/truckplan/internal/domain"
	"github.com/bevops/truckplan/internal/planning"
	"github.com/bevops/truckplan/internal/service"
)

// ScheduleHandler covers schedule edits, inventory counts and settings.
type ScheduleHandler struct {
	service *service.PlanningService
}

func NewScheduleHandler(service *service.PlanningService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

func (h *ScheduleHandler) ListSKUs(c *gin.Context) {
	specs, err := h.service.ListSKUs(c.Request.Context())
	if err != nil {
		respondEngineError(c, "", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"skus": specs})
}

type demandEntryRequest struct {
	Date  string  `json:"date" binding:"required"`
	Cases float64 `json:"cases"`
}

// PutDemand replaces the planned case counts for the posted dates.
func (h *ScheduleHandler) PutDemand(c *gin.Context) {
	sku := c.Param("sku")

	var req []demandEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries := make([]domain.DemandEntry, 0, len(req))
	for _, e := range req {
		entries = append(entries, domain.DemandEntry{SKU: sku, Date: e.Date, PlannedCases: e.Cases})
	}

	if err := h.service.UpsertDemand(c.Request.Context(), entries); err != nil {
		respondEngineError(c, sku, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(entries)})
}

// PostActuals records produced case counts; recorded days are locked against
// replanning.
func (h *ScheduleHandler) PostActuals(c *gin.Context) {
	sku := c.Param("sku")

	var req []demandEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries := make([]domain.DemandEntry, 0, len(req))
	for _, e := range req {
		cases := e.Cases
		entries = append(entries, domain.DemandEntry{SKU: sku, Date: e.Date, ActualCases: &cases})
	}

	if err := h.service.RecordActuals(c.Request.Context(), entries); err != nil {
		respondEngineError(c, sku, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": len(entries)})
}

type inboundEntryRequest struct {
	Date   string  `json:"date" binding:"required"`
	Trucks float64 `json:"trucks"`
}

// PutInbound replaces the manually planned truck counts for the posted dates.
func (h *ScheduleHandler) PutInbound(c *gin.Context) {
	sku := c.Param("sku")

	var req []inboundEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := make(planning.Series, len(req))
	for _, e := range req {
		plan[e.Date] = e.Trucks
	}

	if err := h.service.SetInboundPlan(c.Request.Context(), sku, plan); err != nil {
		respondEngineError(c, sku, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(plan)})
}

type anchorRequest struct {
	Date      string  `json:"date" binding:"required"`
	Pallets   float64 `json:"pallets"`
	CountedBy string  `json:"counted_by"`
}

// PostAnchor records a morning floor count, the ground truth the engine
// replays forward from.
func (h *ScheduleHandler) PostAnchor(c *gin.Context) {
	sku := c.Param("sku")

	var req anchorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	anchor := domain.InventoryAnchor{
		SKU:       sku,
		Date:      req.Date,
		Pallets:   req.Pallets,
		CountedBy: req.CountedBy,
	}
	if err := h.service.RecordAnchor(c.Request.Context(), anchor); err != nil {
		respondEngineError(c, sku, err)
		return
	}
	c.JSON(http.StatusCreated, anchor)
}

type yardRequest struct {
	Date  string  `json:"date" binding:"required"`
	Loads float64 `json:"loads"`
}

// PostYard records the count of arrived-but-unprocessed trailers.
func (h *ScheduleHandler) PostYard(c *gin.Context) {
	sku := c.Param("sku")

	var req yardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	count := domain.YardCount{SKU: sku, Date: req.Date, Loads: req.Loads}
	if err := h.service.RecordYardCount(c.Request.Context(), count); err != nil {
		respondEngineError(c, sku, err)
		return
	}
	c.JSON(http.StatusCreated, count)
}

func (h *ScheduleHandler) GetSettings(c *gin.Context) {
	sku := c.Param("sku")

	settings, err := h.service.GetSettings(c.Request.Context(), sku)
	if err != nil {
		respondEngineError(c, sku, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *ScheduleHandler) PutSettings(c *gin.Context) {
	sku := c.Param("sku")

	var settings domain.PlannerSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	settings.SKU = sku

	if err := h.service.SaveSettings(c.Request.Context(), settings); err != nil {
		respondEngineError(c, sku, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
