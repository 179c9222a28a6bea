package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pouchworks/quote-service/internal/application"
	"github.com/pouchworks/quote-service/pkg/logging"
	"github.com/pouchworks/quote-service/pkg/middleware"
)

// QuoteHandler handles HTTP requests for quotes and processing options
type QuoteHandler struct {
	service *application.QuoteService
	logger  *logging.Logger
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(service *application.QuoteService, logger *logging.Logger) *QuoteHandler {
	return &QuoteHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the quote API on an /api/v1 group. limit guards the
// endpoints that compute on caller input and may be nil.
func (h *QuoteHandler) RegisterRoutes(v1 *gin.RouterGroup, limit gin.HandlerFunc) {
	guarded := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if limit == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{limit, handler}
	}

	quotes := v1.Group("/quotes")
	{
		quotes.POST("/multi-quantity", guarded(h.CompareQuantities)...)
		quotes.POST("", guarded(h.CalculateQuote)...)
	}

	options := v1.Group("/processing-options")
	{
		options.GET("", h.ListOptions)
		options.POST("/impact", guarded(h.CalculateImpact)...)
		options.GET("/:id", h.GetOption)
	}
}

// CompareQuantities handles POST /api/v1/quotes/multi-quantity
func (h *QuoteHandler) CompareQuantities(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req application.MultiQuantityQuoteRequest
	if appErr := middleware.DecodeJSON(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	middleware.AddSpanAttributes(c, map[string]any{
		"quote.quantity_count": len(req.Quantities),
		"quote.mode":           req.ComparisonMode,
	})

	resp, err := h.service.CompareQuantities(c.Request.Context(), &req)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CalculateQuote handles POST /api/v1/quotes
func (h *QuoteHandler) CalculateQuote(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req application.QuoteRequest
	if appErr := middleware.DecodeJSON(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	resp, err := h.service.CalculateQuote(c.Request.Context(), &req)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// ListOptions handles GET /api/v1/processing-options
func (h *QuoteHandler) ListOptions(c *gin.Context) {
	category := middleware.SanitizeString(c.Query("category"))
	bagTypeID := middleware.SanitizeString(c.Query("bagTypeId"))

	opts := h.service.ListOptions(category, bagTypeID)
	c.JSON(http.StatusOK, application.OptionListResponse{
		Success:    true,
		Data:       opts,
		Categories: h.service.Categories(),
		Count:      len(opts),
	})
}

// GetOption handles GET /api/v1/processing-options/:id
func (h *QuoteHandler) GetOption(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	opt, err := h.service.GetOption(c.Param("id"))
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, application.OptionResponse{Success: true, Data: opt})
}

// CalculateImpact handles POST /api/v1/processing-options/impact
func (h *QuoteHandler) CalculateImpact(c *gin.Context) {
	responder := middleware.NewErrorResponder(c, h.logger.Logger)

	var req application.ImpactRequest
	if appErr := middleware.DecodeJSON(c, &req); appErr != nil {
		responder.RespondWithAppError(appErr)
		return
	}

	resp, err := h.service.CalculateImpact(&req)
	if err != nil {
		responder.RespondWithError(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
