package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-engine/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-engine/internal/adapters/identity"
	"github.com/jsamuelsen/quote-engine/internal/app"
	"github.com/jsamuelsen/quote-engine/internal/domain"
)

// cursorField names the sort key encoded in list cursors.
const cursorField = "quoteDate"

// QuoteHandler serves the quote endpoints.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		service: service,
	}
}

func toQuoteResponse(v *app.QuoteView) *dto.QuoteResponse {
	resp := dto.NewQuoteResponse(v.Quote)

	totals := dto.NewTotalsResponse(v.Totals)
	resp.Totals = &totals
	resp.Classification = v.Classification
	resp.Options = v.Options
	resp.CanPullback = v.CanPullback

	return resp
}

// respondWithQuote re-reads a quote after a write so the response carries
// its totals and legal options.
func (h *QuoteHandler) respondWithQuote(c *gin.Context, status int, id string) {
	view, err := h.service.GetQuote(c.Request.Context(), id)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(status, toQuoteResponse(view))
}

// CreateQuote handles POST /api/v1/quotes.
//
// @Summary Create a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param body body dto.CreateQuoteRequest true "Outlet and quote type"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	q, err := h.service.CreateQuote(c.Request.Context(), app.CreateQuoteInput{
		OutletID: req.OutletID,
		TypeID:   req.TypeID,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/quotes/"+q.ID)
	h.respondWithQuote(c, http.StatusCreated, q.ID)
}

// GetQuote handles GET /api/v1/quotes/:id.
func (h *QuoteHandler) GetQuote(c *gin.Context) {
	view, err := h.service.GetQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(view))
}

// UpdateQuote handles PATCH /api/v1/quotes/:id.
func (h *QuoteHandler) UpdateQuote(c *gin.Context) {
	var req dto.UpdateQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	q, err := h.service.UpdateQuote(c.Request.Context(), app.UpdateQuoteInput{
		ID:         c.Param("id"),
		Version:    req.Version,
		StartDate:  req.StartDate,
		Duration:   req.Duration,
		ValidUntil: req.ValidUntil,
		Currency:   req.Currency,
		QuoteFor:   req.QuoteFor,
		BookedBy:   req.BookedBy,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	h.respondWithQuote(c, http.StatusOK, q.ID)
}

// Step handles POST /api/v1/quotes/:id/step.
func (h *QuoteHandler) Step(c *gin.Context) {
	var req dto.StepRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	q, err := h.service.Step(c.Request.Context(), app.StepInput{
		QuoteID:  c.Param("id"),
		OptionID: req.OptionID,
		Version:  req.Version,
	})
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	h.respondWithQuote(c, http.StatusOK, q.ID)
}

// ListQuotes handles GET /api/v1/quotes?rep=&status=&limit=&cursor=.
// rep defaults to the calling user. Quotes come newest first.
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	rep, ok := representative(c, req.Rep)
	if !ok {
		dto.HandleError(c, domain.NewValidationError("rep", "is required"))
		return
	}

	var class domain.Classification

	if req.Status != "" {
		var err error
		if class, err = domain.ParseClassification(req.Status); err != nil {
			dto.HandleError(c, err)
			return
		}
	}

	quotes, err := h.service.ListQuotes(c.Request.Context(), rep, class)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	quotes, err = afterCursor(quotes, &req.PaginationRequest)
	if err != nil {
		dto.HandleError(c, domain.NewValidationError("cursor", err.Error()))
		return
	}

	limit := req.GetLimit()
	if len(quotes) > limit+1 {
		quotes = quotes[:limit+1]
	}

	summaries := make([]dto.QuoteSummary, 0, len(quotes))
	for _, q := range quotes {
		summaries = append(summaries, dto.NewQuoteSummary(q))
	}

	c.JSON(http.StatusOK, dto.NewPaginatedResponse(summaries, limit, func(s dto.QuoteSummary) *dto.CursorData {
		return dto.NewCursor(cursorField, s.QuoteDate.Format(time.RFC3339Nano), s.ID)
	}))
}

// afterCursor drops the quotes up to and including the cursor's quote.
// Lists are ordered by quote date descending, then id.
func afterCursor(quotes []*domain.Quote, p *dto.PaginationRequest) ([]*domain.Quote, error) {
	cursor, err := p.DecodeCursor()
	if errors.Is(err, dto.ErrNoCursor) {
		return quotes, nil
	}

	if err != nil {
		return nil, err
	}

	if cursor.Field != cursorField {
		return nil, dto.ErrInvalidCursor
	}

	at, err := time.Parse(time.RFC3339Nano, cursor.Value)
	if err != nil {
		return nil, dto.ErrInvalidCursor
	}

	for i, q := range quotes {
		if q.QuoteDate.Before(at) || (q.QuoteDate.Equal(at) && q.ID > cursor.ID) {
			return quotes[i:], nil
		}
	}

	return []*domain.Quote{}, nil
}

// PurgeTrash handles DELETE /api/v1/trash?rep=. It permanently deletes
// the representative's trashed quotes.
func (h *QuoteHandler) PurgeTrash(c *gin.Context) {
	var req dto.PurgeRequest
	if err := dto.BindQueryAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	rep, ok := representative(c, req.Rep)
	if !ok {
		dto.HandleError(c, domain.NewValidationError("rep", "is required"))
		return
	}

	n, err := h.service.PurgeTrash(c.Request.Context(), rep)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PurgeResponse{Purged: n})
}

// AddComment handles POST /api/v1/quotes/:id/comments.
func (h *QuoteHandler) AddComment(c *gin.Context) {
	var req dto.CommentRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindingError(c, err)
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), c.Param("id"), req.Version, req.Text)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

func representative(c *gin.Context, rep string) (string, bool) {
	if rep != "" {
		return rep, true
	}

	if u, ok := identity.UserFromContext(c.Request.Context()); ok {
		return u.ID, true
	}

	return "", false
}

// RegisterQuoteRoutes registers the quote and line routes on rg.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.CreateQuote)
	quotes.GET("/:id", h.GetQuote)
	quotes.PATCH("/:id", h.UpdateQuote)
	quotes.POST("/:id/step", h.Step)
	quotes.POST("/:id/comments", h.AddComment)

	lines := quotes.Group("/:id/sections/:sectionId")
	lines.GET("/schema", h.LineSchema)
	lines.POST("/lines", h.AddLine)
	lines.PATCH("/lines/:lineId", h.UpdateLine)
	lines.DELETE("/lines/:lineId", h.RemoveLine)
}

// RegisterTrashRoutes registers the trash purge on rg.
func (h *QuoteHandler) RegisterTrashRoutes(rg *gin.RouterGroup) {
	rg.DELETE("/trash", h.PurgeTrash)
}
