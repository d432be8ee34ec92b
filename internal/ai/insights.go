package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/database"
)

const insightSystemPrompt = `You are a sports betting analyst. You are given recent player stats, ` +
	`live sportsbook odds and derived prop analytics. Write a concise, factual analysis. ` +
	`Flag any rows marked fallback or synthetic as unreliable. Never present confidence ` +
	`scores as calibrated probabilities.`

// Cache is the subset of the cache service the AI layer needs.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// InsightRequest selects what to analyze.
type InsightRequest struct {
	Sport        string `json:"sport" binding:"required"`
	PlayerName   string `json:"player_name"`
	AnalysisType string `json:"analysis_type"` // "matchup", "trend", "value"
}

// InsightResult is the analysis text plus a metadata envelope.
type InsightResult struct {
	Analysis string      `json:"analysis"`
	Meta     InsightMeta `json:"meta"`
}

type InsightMeta struct {
	Sport         string    `json:"sport"`
	PlayerName    string    `json:"player_name,omitempty"`
	AnalysisType  string    `json:"analysis_type"`
	StatsRows     int       `json:"stats_rows"`
	OddsRows      int       `json:"odds_rows"`
	AnalyticsRows int       `json:"analytics_rows"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// InsightService assembles a data dump into a single chat-completion
// request and returns the raw analysis text.
type InsightService struct {
	db       *database.DB
	cache    Cache
	client   *Client
	cacheTTL time.Duration
	logger   *logrus.Logger
}

func NewInsightService(db *database.DB, cache Cache, client *Client, cacheTTL time.Duration, logger *logrus.Logger) *InsightService {
	return &InsightService{
		db:       db,
		cache:    cache,
		client:   client,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// GenerateInsight produces analysis text for a sport/player/analysis-type
// combination.
func (s *InsightService) GenerateInsight(ctx context.Context, userID uint, req InsightRequest) (*InsightResult, error) {
	if req.AnalysisType == "" {
		req.AnalysisType = "value"
	}

	cacheKey := fmt.Sprintf("insight:%s:%s:%s", req.Sport, req.PlayerName, req.AnalysisType)
	if s.cache != nil {
		var cached InsightResult
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return &cached, nil
		}
	}

	stats, odds, analytics := s.loadRows(ctx, req)

	prompt := s.buildPrompt(req, stats, odds, analytics)
	resp, err := s.client.Messages(ctx, Request{
		MaxTokens: 1024,
		System:    insightSystemPrompt,
		Messages:  []Message{TextMessage("user", prompt)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate insight: %w", err)
	}

	result := &InsightResult{
		Analysis: resp.FirstText(),
		Meta: InsightMeta{
			Sport:         req.Sport,
			PlayerName:    req.PlayerName,
			AnalysisType:  req.AnalysisType,
			StatsRows:     len(stats),
			OddsRows:      len(odds),
			AnalyticsRows: len(analytics),
			GeneratedAt:   time.Now().UTC(),
		},
	}

	s.store(userID, req, result)

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, result, s.cacheTTL)
	}

	return result, nil
}

// loadRows gathers the data dump. Read errors are logged and treated as
// empty inputs; the insight is generated from whatever loaded.
func (s *InsightService) loadRows(ctx context.Context, req InsightRequest) ([]models.PlayerStat, []models.LiveOdds, []models.PropAnalytics) {
	var stats []models.PlayerStat
	statsQuery := s.db.WithContext(ctx).Order("game_date DESC").Limit(50)
	if req.PlayerName != "" {
		statsQuery = statsQuery.Where("player_name = ?", req.PlayerName)
	}
	if err := statsQuery.Find(&stats).Error; err != nil {
		s.logger.Errorf("Failed to load stats for insight: %v", err)
	}

	var odds []models.LiveOdds
	oddsQuery := s.db.WithContext(ctx).Where("sport = ?", req.Sport).Limit(100)
	if req.PlayerName != "" {
		oddsQuery = oddsQuery.Where("player_name = ?", req.PlayerName)
	}
	if err := oddsQuery.Find(&odds).Error; err != nil {
		s.logger.Errorf("Failed to load odds for insight: %v", err)
	}

	var analytics []models.PropAnalytics
	analyticsQuery := s.db.WithContext(ctx).Where("sport = ?", req.Sport).Limit(50)
	if req.PlayerName != "" {
		analyticsQuery = analyticsQuery.Where("player_name = ?", req.PlayerName)
	}
	if err := analyticsQuery.Find(&analytics).Error; err != nil {
		s.logger.Errorf("Failed to load analytics for insight: %v", err)
	}

	return stats, odds, analytics
}

func (s *InsightService) buildPrompt(req InsightRequest, stats []models.PlayerStat, odds []models.LiveOdds, analytics []models.PropAnalytics) string {
	var prompt strings.Builder

	prompt.WriteString(fmt.Sprintf("Produce a %s analysis for %s", req.AnalysisType, strings.ToUpper(req.Sport)))
	if req.PlayerName != "" {
		prompt.WriteString(fmt.Sprintf(", focused on %s", req.PlayerName))
	}
	prompt.WriteString(".\n\nRecent stats:\n")
	for _, st := range stats {
		prompt.WriteString(fmt.Sprintf("- %s %s: %.1f on %s [%s]\n", st.PlayerName, st.StatType, st.Value, st.GameDate, st.Source))
	}

	prompt.WriteString("\nLive odds:\n")
	for _, o := range odds {
		prompt.WriteString(fmt.Sprintf("- %s %s %.1f (O %s / U %s) at %s [%s]\n",
			o.PlayerName, o.StatType, o.Line, o.OverOdds, o.UnderOdds, o.Sportsbook, o.DataSource))
	}

	prompt.WriteString("\nProp analytics:\n")
	for _, a := range analytics {
		prompt.WriteString(fmt.Sprintf("- %s %s: season %.1f, recent %.1f, hit rate %.0f%%, edge %.1f%%, trend %s\n",
			a.PlayerName, a.StatType, a.SeasonAvg, a.RecentFormAvg, a.HitRate, a.EdgePercent, a.Trend))
	}

	return prompt.String()
}

// store persists the request/response pair; failures are logged only.
func (s *InsightService) store(userID uint, req InsightRequest, result *InsightResult) {
	requestData, _ := json.Marshal(req)
	responseData, _ := json.Marshal(result)

	row := models.AIInsight{
		UserID:       userID,
		Kind:         "insight",
		Sport:        req.Sport,
		PlayerName:   req.PlayerName,
		AnalysisType: req.AnalysisType,
		Request:      datatypes.JSON(requestData),
		Response:     datatypes.JSON(responseData),
		RowsAnalyzed: result.Meta.StatsRows + result.Meta.OddsRows + result.Meta.AnalyticsRows,
	}
	if err := s.db.Create(&row).Error; err != nil {
		s.logger.Errorf("Failed to store AI insight: %v", err)
	}
}
