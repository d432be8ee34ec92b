package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/internal/services"
	"github.com/propedge/propedge/pkg/database"
	"github.com/propedge/propedge/pkg/utils"
)

const scheduleCacheTTL = 5 * time.Minute

type ScheduleHandler struct {
	db     *database.DB
	cache  *services.CacheService
	ingest *services.IngestService
}

func NewScheduleHandler(db *database.DB, cache *services.CacheService, ingest *services.IngestService) *ScheduleHandler {
	return &ScheduleHandler{db: db, cache: cache, ingest: ingest}
}

// GetSchedule returns stored games for a sport and date.
// GET /api/v1/schedule?sport=nba&date=2026-01-20
func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	sport := c.DefaultQuery("sport", "all")
	date := c.DefaultQuery("date", time.Now().UTC().Format("2006-01-02"))

	cacheKey := services.ScheduleCacheKey(sport, date)
	if h.cache != nil {
		var cached []models.GameSchedule
		if err := h.cache.Get(c.Request.Context(), cacheKey, &cached); err == nil {
			utils.SendSuccess(c, gin.H{"games": cached, "count": len(cached), "date": date})
			return
		}
	}

	query := h.db.WithContext(c.Request.Context()).
		Where("game_date = ?", date).
		Order("game_time, home_team")
	if sport != "all" {
		query = query.Where("sport = ?", sport)
	}

	var games []models.GameSchedule
	if err := query.Find(&games).Error; err != nil {
		utils.SendInternalError(c, "Failed to load schedule")
		return
	}

	if h.cache != nil {
		h.cache.Set(c.Request.Context(), cacheKey, games, scheduleCacheTTL)
	}

	utils.SendSuccess(c, gin.H{"games": games, "count": len(games), "date": date})
}

// GetLiveGames returns games currently in progress.
// GET /api/v1/schedule/live?sport=nba
func (h *ScheduleHandler) GetLiveGames(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Where("status = ?", "live")
	if sport := c.Query("sport"); sport != "" && sport != "all" {
		query = query.Where("sport = ?", sport)
	}

	var games []models.GameSchedule
	if err := query.Find(&games).Error; err != nil {
		utils.SendInternalError(c, "Failed to load live games")
		return
	}

	utils.SendSuccess(c, gin.H{"games": games, "count": len(games)})
}

// RefreshSchedule triggers a synchronous schedule fetch.
// POST /api/v1/schedule/refresh?sport=nba&date=20260120
func (h *ScheduleHandler) RefreshSchedule(c *gin.Context) {
	sport := c.DefaultQuery("sport", "nba")
	date := c.DefaultQuery("date", time.Now().UTC().Format("20060102"))

	count, err := h.ingest.RefreshSchedule(c.Request.Context(), sport, date)
	if err != nil {
		utils.SendInternalError(c, "Schedule refresh failed")
		return
	}

	utils.SendSuccess(c, gin.H{
		"sport":   sport,
		"date":    date,
		"updated": count,
	})
}
