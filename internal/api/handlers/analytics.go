package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/propedge/propedge/internal/edge"
	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/internal/services"
	"github.com/propedge/propedge/pkg/database"
	"github.com/propedge/propedge/pkg/utils"
)

type AnalyticsHandler struct {
	db        *database.DB
	analytics *services.AnalyticsService
}

func NewAnalyticsHandler(db *database.DB, analytics *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{db: db, analytics: analytics}
}

// ListAnalytics returns derived prop analytics rows, highest edge first.
// GET /api/v1/analytics?sport=nba&player=Jalen+Marsh
func (h *AnalyticsHandler) ListAnalytics(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Order("edge_percent DESC")
	if sport := c.Query("sport"); sport != "" && sport != "all" {
		query = query.Where("sport = ?", sport)
	}
	if player := c.Query("player"); player != "" {
		query = query.Where("player_name = ?", player)
	}

	var rows []models.PropAnalytics
	if err := query.Limit(200).Find(&rows).Error; err != nil {
		utils.SendInternalError(c, "Failed to load analytics")
		return
	}

	utils.SendSuccess(c, gin.H{"analytics": rows, "count": len(rows)})
}

// Recompute rebuilds the analytics rows for one sport from stored odds and
// stats.
// POST /api/v1/analytics/recompute?sport=nba
func (h *AnalyticsHandler) Recompute(c *gin.Context) {
	sport := c.DefaultQuery("sport", "nba")

	count, err := h.analytics.Recompute(c.Request.Context(), sport)
	if err != nil {
		utils.SendInternalError(c, "Analytics recompute failed")
		return
	}

	utils.SendSuccess(c, gin.H{"sport": sport, "updated": count})
}

type riskRow struct {
	PlayerName string  `json:"player_name"`
	StatType   string  `json:"stat_type"`
	Sportsbook string  `json:"sportsbook"`
	Line       float64 `json:"line"`
	OverOdds   string  `json:"over_odds"`
	UnderOdds  string  `json:"under_odds"`
	OverRisk   string  `json:"over_risk"`
	UnderRisk  string  `json:"under_risk"`
	FairOver   float64 `json:"fair_over_probability"`
	FairUnder  float64 `json:"fair_under_probability"`
}

// RiskBreakdown tags each stored quote with a payout-based risk bucket and
// its vig-free implied probabilities.
// GET /api/v1/analytics/risk?sport=nba&player=Jalen+Marsh
func (h *AnalyticsHandler) RiskBreakdown(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Order("player_name, stat_type")
	if sport := c.Query("sport"); sport != "" && sport != "all" {
		query = query.Where("sport = ?", sport)
	}
	if player := c.Query("player"); player != "" {
		query = query.Where("player_name = ?", player)
	}

	var odds []models.LiveOdds
	if err := query.Limit(200).Find(&odds).Error; err != nil {
		utils.SendInternalError(c, "Failed to load odds")
		return
	}

	rows := make([]riskRow, 0, len(odds))
	for _, o := range odds {
		row := riskRow{
			PlayerName: o.PlayerName,
			StatType:   o.StatType,
			Sportsbook: o.Sportsbook,
			Line:       o.Line,
			OverOdds:   o.OverOdds,
			UnderOdds:  o.UnderOdds,
			OverRisk:   edge.RiskCategory(o.OverOdds),
			UnderRisk:  edge.RiskCategory(o.UnderOdds),
		}
		over, errOver := edge.ParseAmericanOdds(o.OverOdds)
		under, errUnder := edge.ParseAmericanOdds(o.UnderOdds)
		if errOver == nil && errUnder == nil {
			row.FairOver, row.FairUnder = edge.RemoveVig(
				edge.ImpliedProbability(over),
				edge.ImpliedProbability(under),
			)
		}
		rows = append(rows, row)
	}

	utils.SendSuccess(c, gin.H{"risk": rows, "count": len(rows)})
}
