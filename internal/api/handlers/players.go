package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/internal/services"
	"github.com/propedge/propedge/pkg/database"
	"github.com/propedge/propedge/pkg/utils"
)

type PlayerHandler struct {
	db          *database.DB
	searchCache *services.PlayerSearchCache
}

func NewPlayerHandler(db *database.DB, searchCache *services.PlayerSearchCache) *PlayerHandler {
	return &PlayerHandler{db: db, searchCache: searchCache}
}

// GetPlayerStats returns a player's recent game log, newest first.
// GET /api/v1/players/:name/stats?stat_type=Points&limit=25
func (h *PlayerHandler) GetPlayerStats(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		utils.SendValidationError(c, "Player name required", "")
		return
	}

	query := h.db.WithContext(c.Request.Context()).
		Where("player_name = ?", name).
		Order("game_date DESC")
	if statType := c.Query("stat_type"); statType != "" {
		query = query.Where("stat_type = ?", statType)
	}

	var stats []models.PlayerStat
	if err := query.Limit(100).Find(&stats).Error; err != nil {
		utils.SendInternalError(c, "Failed to load player stats")
		return
	}
	if len(stats) == 0 {
		utils.SendNotFound(c, "No stats found for player")
		return
	}

	utils.SendSuccess(c, gin.H{
		"player": name,
		"stats":  stats,
		"count":  len(stats),
	})
}

// GetPlayerMatchups returns a player's head-to-head history.
// GET /api/v1/players/:name/matchups?opponent=Denver+Nuggets
func (h *PlayerHandler) GetPlayerMatchups(c *gin.Context) {
	name := c.Param("name")

	query := h.db.WithContext(c.Request.Context()).
		Where("player_name = ?", name).
		Order("game_date DESC")
	if opponent := c.Query("opponent"); opponent != "" {
		query = query.Where("opponent = ?", opponent)
	}

	var matchups []models.PlayerMatchup
	if err := query.Limit(50).Find(&matchups).Error; err != nil {
		utils.SendInternalError(c, "Failed to load matchups")
		return
	}

	utils.SendSuccess(c, gin.H{
		"player":   name,
		"matchups": matchups,
		"count":    len(matchups),
	})
}

// SearchPlayers finds player names by prefix across odds and stats rows.
// Results are memoized in the injected search cache.
// GET /api/v1/players/search?q=jal
func (h *PlayerHandler) SearchPlayers(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if len(query) < 2 {
		utils.SendValidationError(c, "Query must be at least 2 characters", "")
		return
	}

	normalized := strings.ToLower(query)
	if h.searchCache != nil {
		if names, ok := h.searchCache.Get(normalized); ok {
			utils.SendSuccess(c, gin.H{"players": names, "cached": true})
			return
		}
	}

	pattern := normalized + "%"
	var fromOdds []string
	err := h.db.WithContext(c.Request.Context()).
		Model(&models.LiveOdds{}).
		Distinct("player_name").
		Where("LOWER(player_name) LIKE ?", pattern).
		Limit(20).
		Pluck("player_name", &fromOdds).Error
	if err != nil {
		utils.SendInternalError(c, "Search failed")
		return
	}

	var fromStats []string
	err = h.db.WithContext(c.Request.Context()).
		Model(&models.PlayerStat{}).
		Distinct("player_name").
		Where("LOWER(player_name) LIKE ?", pattern).
		Limit(20).
		Pluck("player_name", &fromStats).Error
	if err != nil {
		utils.SendInternalError(c, "Search failed")
		return
	}

	seen := make(map[string]bool)
	names := make([]string, 0, len(fromOdds)+len(fromStats))
	for _, name := range append(fromOdds, fromStats...) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	if h.searchCache != nil {
		h.searchCache.Put(normalized, names)
	}

	utils.SendSuccess(c, gin.H{"players": names, "cached": false})
}
