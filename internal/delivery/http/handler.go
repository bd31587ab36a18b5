package http

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/basketlens/backend/internal/domain"
	"github.com/basketlens/backend/internal/infrastructure/listio"
	"github.com/basketlens/backend/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// maxUploadBytes bounds shopping-list uploads
const maxUploadBytes = 1 << 20

var lineBreak = regexp.MustCompile(`\r\n|\n|\r`)

// PlanDefaults holds the optimizer settings applied when a request omits them
type PlanDefaults struct {
	Strategy       domain.Strategy
	MaxVisits      int
	MaxVisitsLimit int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	basketService *usecase.BasketService
	defaults      PlanDefaults
	logger        zerolog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(basketService *usecase.BasketService, defaults PlanDefaults, logger zerolog.Logger) *Handler {
	if defaults.Strategy == "" {
		defaults.Strategy = domain.StrategyExhaustive
	}
	if defaults.MaxVisitsLimit < 1 {
		defaults.MaxVisitsLimit = 5
	}
	if defaults.MaxVisits < 1 {
		defaults.MaxVisits = min(2, defaults.MaxVisitsLimit)
	}

	return &Handler{
		basketService: basketService,
		defaults:      defaults,
		logger:        logger.With().Str("component", "http").Logger(),
	}
}

// ListRequest carries a shopping list as items or as newline separated text
type ListRequest struct {
	Items []string `json:"items"`
	List  string   `json:"list"`
}

// queries returns the request's items verbatim. A list is split on line
// breaks and loses only a trailing empty line.
func (r ListRequest) queries() []string {
	if len(r.Items) > 0 || r.List == "" {
		return r.Items
	}

	lines := lineBreak.Split(r.List, -1)
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// PlanRequest is the body of a basket optimization request
type PlanRequest struct {
	ListRequest
	MaxVisits *int     `json:"maxVisits"`
	Retailers []string `json:"retailers"`
	Strategy  string   `json:"strategy"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "basketlens-backend",
		"version": "1.0.0",
	})
}

// ListRetailers returns the code, name and icon of every retailer
func (h *Handler) ListRetailers(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	retailers, err := h.basketService.ListRetailers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, retailers)
}

// PriceTable prices every item of the list at every retailer
func (h *Handler) PriceTable(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	table, err := h.basketService.PriceTable(c.Request.Context(), req.queries())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

// OptimalPlan distributes the list over a bounded number of retailers
func (h *Handler) OptimalPlan(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	strategy := h.defaults.Strategy
	if req.Strategy != "" {
		parsed, err := domain.ParseStrategy(req.Strategy)
		if err != nil {
			h.writeError(c, err)
			return
		}
		strategy = parsed
	}

	maxVisits := h.defaults.MaxVisits
	if req.MaxVisits != nil {
		maxVisits = min(*req.MaxVisits, h.defaults.MaxVisitsLimit)
	}

	ctx := c.Request.Context()
	codes := req.Retailers
	if len(codes) == 0 {
		// Without a selection every retailer is a candidate
		retailers, err := h.basketService.ListRetailers(ctx)
		if err != nil {
			h.writeError(c, err)
			return
		}
		for _, r := range retailers {
			codes = append(codes, r.Code)
		}
	}

	result, err := h.basketService.OptimalPlan(ctx, req.queries(), maxVisits, codes, strategy)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ShareLink returns a web link that opens the list
func (h *Handler) ShareLink(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	var req ListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	queries := req.queries()
	if len(queries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shopping list is empty"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": h.basketService.ShareLink(queries)})
}

// LastUpdated returns the upstream modification time of the cached catalog, or null
func (h *Handler) LastUpdated(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	lastUpdated, ok := h.basketService.LastUpdated(c.Request.Context())
	if !ok {
		c.JSON(http.StatusOK, gin.H{"lastUpdated": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lastUpdated": lastUpdated})
}

// ImportList parses an uploaded text, csv or spreadsheet file into list items
func (h *Handler) ImportList(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload: " + err.Error()})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file upload"})
		return
	}
	defer file.Close()

	items, err := listio.ReadList(file, header.Filename)
	if err != nil {
		h.logger.Info().Err(err).Str("file", header.Filename).Msg("list import rejected")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// ready writes 501 when the handler was built without a basket service
func (h *Handler) ready(c *gin.Context) bool {
	if h.basketService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "basket service not configured"})
		return false
	}
	return true
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNoMatchingRetailers):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCatalogUnavailable):
		h.logger.Error().Err(err).Msg("catalog unavailable")
		c.JSON(http.StatusBadGateway, gin.H{"error": "supermarket catalog is unavailable"})
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
