package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/internal/services"
	"github.com/propedge/propedge/pkg/database"
	"github.com/propedge/propedge/pkg/utils"
)

type OddsHandler struct {
	db     *database.DB
	ingest *services.IngestService
}

func NewOddsHandler(db *database.DB, ingest *services.IngestService) *OddsHandler {
	return &OddsHandler{db: db, ingest: ingest}
}

// ListOdds returns stored prop quotes, optionally filtered.
// GET /api/v1/odds?sport=nba&player=Jalen+Marsh&stat_type=Points
func (h *OddsHandler) ListOdds(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Order("player_name, stat_type, sportsbook")
	if sport := c.Query("sport"); sport != "" && sport != "all" {
		query = query.Where("sport = ?", sport)
	}
	if player := c.Query("player"); player != "" {
		query = query.Where("player_name = ?", player)
	}
	if statType := c.Query("stat_type"); statType != "" {
		query = query.Where("stat_type = ?", statType)
	}

	var odds []models.LiveOdds
	if err := query.Limit(500).Find(&odds).Error; err != nil {
		utils.SendInternalError(c, "Failed to load odds")
		return
	}

	utils.SendSuccess(c, gin.H{
		"odds":  odds,
		"count": len(odds),
	})
}

// RefreshOdds triggers a synchronous odds fetch for one sport.
// POST /api/v1/odds/refresh?sport=nba
func (h *OddsHandler) RefreshOdds(c *gin.Context) {
	sport := c.DefaultQuery("sport", "nba")

	count, err := h.ingest.RefreshOdds(c.Request.Context(), sport)
	if err != nil {
		utils.SendInternalError(c, "Odds refresh failed")
		return
	}

	utils.SendSuccess(c, gin.H{
		"sport":   sport,
		"updated": count,
	})
}
