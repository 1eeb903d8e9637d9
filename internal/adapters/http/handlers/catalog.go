package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-engine/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-engine/internal/app"
	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// CatalogHandler serves outlets, rate cards, quote types and workflow
// definitions.
type CatalogHandler struct {
	service *app.CatalogService
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(service *app.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListOutlets handles GET /api/v1/outlets.
func (h *CatalogHandler) ListOutlets(c *gin.Context) {
	outlets, err := h.service.ListOutlets(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	resp := make([]*dto.OutletResponse, 0, len(outlets))
	for _, o := range outlets {
		resp = append(resp, dto.NewOutletResponse(o))
	}

	c.JSON(http.StatusOK, resp)
}

// GetOutlet handles GET /api/v1/outlets/:id.
func (h *CatalogHandler) GetOutlet(c *gin.Context) {
	o, err := h.service.GetOutlet(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOutletResponse(o))
}

// SaveOutlet handles PUT /api/v1/outlets/:id.
func (h *CatalogHandler) SaveOutlet(c *gin.Context) {
	var req dto.OutletRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	o := req.ToDomain(c.Param("id"))
	if err := h.service.SaveOutlet(c.Request.Context(), o); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewOutletResponse(o))
}

// SetRateCardPrice handles PUT /api/v1/outlets/:id/ratecards/:rateCardId/prices.
func (h *CatalogHandler) SetRateCardPrice(c *gin.Context) {
	var req dto.PriceRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	if err := req.Validate(); err != nil {
		dto.HandleError(c, err)
		return
	}

	rc, err := h.service.SetRateCardPrice(c.Request.Context(), c.Param("id"), c.Param("rateCardId"), req.ToDomain())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewRateCardResponse(rc))
}

// RateCardAxes handles GET /api/v1/outlets/:id/ratecards/:rateCardId/axes.
func (h *CatalogHandler) RateCardAxes(c *gin.Context) {
	bands, sizes, err := h.service.RateCardAxes(c.Request.Context(), c.Param("id"), c.Param("rateCardId"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AxesResponse{Bands: bands, AdSizes: sizes})
}

// GetQuoteType handles GET /api/v1/quote-types/:id.
func (h *CatalogHandler) GetQuoteType(c *gin.Context) {
	qt, err := h.service.GetQuoteType(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, qt)
}

// SaveQuoteType handles PUT /api/v1/quote-types/:id.
func (h *CatalogHandler) SaveQuoteType(c *gin.Context) {
	var qt domain.QuoteType
	if err := c.ShouldBindJSON(&qt); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	qt.ID = c.Param("id")

	if err := h.service.SaveQuoteType(c.Request.Context(), &qt); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, &qt)
}

// GetWorkflow handles GET /api/v1/workflows/:id.
func (h *CatalogHandler) GetWorkflow(c *gin.Context) {
	wf, err := h.service.GetWorkflow(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, wf)
}

// SaveWorkflow handles PUT /api/v1/workflows/:id.
func (h *CatalogHandler) SaveWorkflow(c *gin.Context) {
	var wf domain.WorkflowDefinition
	if err := c.ShouldBindJSON(&wf); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	wf.ID = c.Param("id")

	if err := h.service.SaveWorkflow(c.Request.Context(), &wf); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, &wf)
}

// RegisterCatalogRoutes registers catalog reads on read and writes on
// write. The groups may be the same.
func (h *CatalogHandler) RegisterCatalogRoutes(read, write *gin.RouterGroup) {
	read.GET("/outlets", h.ListOutlets)
	read.GET("/outlets/:id", h.GetOutlet)
	read.GET("/outlets/:id/ratecards/:rateCardId/axes", h.RateCardAxes)
	read.GET("/quote-types/:id", h.GetQuoteType)
	read.GET("/workflows/:id", h.GetWorkflow)

	write.PUT("/outlets/:id", h.SaveOutlet)
	write.PUT("/outlets/:id/ratecards/:rateCardId/prices", h.SetRateCardPrice)
	write.PUT("/quote-types/:id", h.SaveQuoteType)
	write.PUT("/workflows/:id", h.SaveWorkflow)
}
