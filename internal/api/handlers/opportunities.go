package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propedge/propedge/internal/analyzer"
	"github.com/propedge/propedge/internal/services"
	"github.com/propedge/propedge/pkg/utils"
)

const opportunitiesCacheTTL = 2 * time.Minute

type OpportunitiesHandler struct {
	analyzer *analyzer.Service
	cache    *services.CacheService
}

func NewOpportunitiesHandler(svc *analyzer.Service, cache *services.CacheService) *OpportunitiesHandler {
	return &OpportunitiesHandler{analyzer: svc, cache: cache}
}

type opportunitiesResponse struct {
	Opportunities []analyzer.Opportunity `json:"opportunities"`
	Count         int                    `json:"count"`
	GeneratedAt   time.Time              `json:"generated_at"`
}

// GetOpportunities runs the analyzer and returns the ranked list.
// GET /api/v1/opportunities?sport=nba&category=player_props&min_edge=5&min_confidence=60
func (h *OpportunitiesHandler) GetOpportunities(c *gin.Context) {
	req := analyzer.Request{
		Sport:    c.DefaultQuery("sport", "all"),
		Category: c.Query("category"),
	}
	if req.Category != "" && !analyzer.ValidCategory(req.Category) {
		utils.SendValidationError(c, "Unknown category", req.Category)
		return
	}

	var err error
	if raw := c.Query("min_edge"); raw != "" {
		if req.MinEdge, err = strconv.ParseFloat(raw, 64); err != nil {
			utils.SendValidationError(c, "Invalid min_edge", raw)
			return
		}
	}
	if raw := c.Query("min_confidence"); raw != "" {
		if req.MinConfidence, err = strconv.ParseFloat(raw, 64); err != nil {
			utils.SendValidationError(c, "Invalid min_confidence", raw)
			return
		}
	}

	// Only unfiltered requests hit the cache; filter combinations are too
	// sparse to be worth keying.
	cacheable := req.MinEdge == 0 && req.MinConfidence == 0
	cacheKey := services.OpportunitiesCacheKey(req.Sport, req.Category)
	if cacheable && h.cache != nil {
		var cached opportunitiesResponse
		if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
			utils.SendSuccess(c, cached)
			return
		}
	}

	opportunities, err := h.analyzer.Analyze(c.Request.Context(), req)
	if err != nil {
		utils.SendValidationError(c, "Analysis failed", err.Error())
		return
	}

	resp := opportunitiesResponse{
		Opportunities: opportunities,
		Count:         len(opportunities),
		GeneratedAt:   time.Now().UTC(),
	}
	if cacheable && h.cache != nil {
		h.cache.Set(c.Request.Context(), cacheKey, resp, opportunitiesCacheTTL)
	}

	utils.SendSuccess(c, resp)
}

type analyzeRequest struct {
	Sport         string  `json:"sport"`
	Category      string  `json:"category"`
	MinEdge       float64 `json:"min_edge"`
	MinConfidence float64 `json:"min_confidence"`
}

// AnalyzeOpportunities is the body-driven variant of GetOpportunities, kept
// for clients that post their filter state as JSON.
// POST /api/v1/opportunities/analyze
func (h *OpportunitiesHandler) AnalyzeOpportunities(c *gin.Context) {
	var body analyzeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if body.Category != "" && !analyzer.ValidCategory(body.Category) {
		utils.SendValidationError(c, "Unknown category", body.Category)
		return
	}

	opportunities, err := h.analyzer.Analyze(c.Request.Context(), analyzer.Request{
		Sport:         body.Sport,
		Category:      body.Category,
		MinEdge:       body.MinEdge,
		MinConfidence: body.MinConfidence,
	})
	if err != nil {
		utils.SendValidationError(c, "Analysis failed", err.Error())
		return
	}

	utils.SendSuccess(c, opportunitiesResponse{
		Opportunities: opportunities,
		Count:         len(opportunities),
		GeneratedAt:   time.Now().UTC(),
	})
}

// GetCategories lists the fixed strategy categories.
// GET /api/v1/opportunities/categories
func (h *OpportunitiesHandler) GetCategories(c *gin.Context) {
	utils.SendSuccess(c, gin.H{
		"categories": []string{
			analyzer.CategoryPlayerProps,
			analyzer.CategoryLiveBetting,
			analyzer.CategoryCollegeSports,
			analyzer.CategoryArbitrage,
			analyzer.CategoryDerivativeMarkets,
		},
	})
}
