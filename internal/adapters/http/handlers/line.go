package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-engine/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-engine/internal/app"
)

// AddLine handles POST /api/v1/quotes/:id/sections/:sectionId/lines.
func (h *QuoteHandler) AddLine(c *gin.Context) {
	var req dto.VersionRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	line, err := h.service.AddLine(c.Request.Context(), c.Param("id"), c.Param("sectionId"), req.Version)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewLineResponse(line))
}

// UpdateLine handles PATCH /api/v1/quotes/:id/sections/:sectionId/lines/:lineId.
func (h *QuoteHandler) UpdateLine(c *gin.Context) {
	var req dto.UpdateLineRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	line, err := h.service.UpdateLine(c.Request.Context(), app.UpdateLineInput{
		QuoteID:    c.Param("id"),
		SectionID:  c.Param("sectionId"),
		LineID:     c.Param("lineId"),
		Version:    req.Version,
		Quantity:   req.Quantity,
		BookRate:   req.BookRate,
		Discount:   req.Discount,
		Properties: req.Properties,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewLineResponse(line))
}

// RemoveLine handles DELETE /api/v1/quotes/:id/sections/:sectionId/lines/:lineId?version=.
func (h *QuoteHandler) RemoveLine(c *gin.Context) {
	var req dto.VersionRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	err := h.service.RemoveLine(c.Request.Context(), c.Param("id"), c.Param("sectionId"), c.Param("lineId"), req.Version)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// LineSchema handles GET /api/v1/quotes/:id/sections/:sectionId/schema.
func (h *QuoteHandler) LineSchema(c *gin.Context) {
	schema, err := h.service.LineSchema(c.Request.Context(), c.Param("id"), c.Param("sectionId"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LineSchemaResponse{
		Serializer:       schema.Serializer,
		DiscountPossible: schema.DiscountPossible,
		RateVisible:      schema.RateVisible,
		Summary:          schema.Summary,
		Detail:           schema.Detail,
		Frozen:           schema.Frozen,
		NonFrozen:        schema.NonFrozen,
	})
}
