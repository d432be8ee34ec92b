package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"github.com/propedge/propedge/internal/edge"
	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/database"
)

// AnalyticsService recomputes the prop_analytics summary table wholesale
// from player_stats and live_odds. There is no incremental path; each run
// replaces the derived numbers for every (player, stat, sport) it sees.
type AnalyticsService struct {
	db     *database.DB
	logger *logrus.Logger
}

func NewAnalyticsService(db *database.DB, logger *logrus.Logger) *AnalyticsService {
	return &AnalyticsService{db: db, logger: logger}
}

// Recompute rebuilds analytics for one sport and returns the row count.
func (s *AnalyticsService) Recompute(ctx context.Context, sport string) (int, error) {
	var odds []models.LiveOdds
	if err := s.db.WithContext(ctx).Where("sport = ?", sport).Find(&odds).Error; err != nil {
		return 0, fmt.Errorf("failed to load odds: %w", err)
	}

	// One line per (player, stat): the mean across books.
	type key struct{ player, stat string }
	linesByProp := make(map[key][]float64)
	for _, o := range odds {
		k := key{o.PlayerName, o.StatType}
		linesByProp[k] = append(linesByProp[k], o.Line)
	}

	count := 0
	now := time.Now().UTC()
	for k, lines := range linesByProp {
		var stats []models.PlayerStat
		err := s.db.WithContext(ctx).
			Where("player_name = ? AND stat_type = ?", k.player, k.stat).
			Order("game_date DESC").
			Find(&stats).Error
		if err != nil {
			s.logger.Errorf("Failed to load stats for %s/%s: %v", k.player, k.stat, err)
			continue
		}
		if len(stats) == 0 {
			continue
		}

		values := make([]float64, 0, len(stats))
		for _, st := range stats {
			values = append(values, st.Value)
		}

		avgLine := edge.Mean(lines)
		seasonAvg := edge.Mean(values)
		recentAvg := edge.RecentMean(values, 5)

		hits := 0
		for _, v := range values {
			if v > avgLine {
				hits++
			}
		}

		trend := "steady"
		switch {
		case recentAvg > seasonAvg*1.05:
			trend = "up"
		case recentAvg < seasonAvg*0.95:
			trend = "down"
		}

		row := models.PropAnalytics{
			PlayerName:    k.player,
			StatType:      k.stat,
			Sport:         sport,
			SeasonAvg:     seasonAvg,
			RecentFormAvg: recentAvg,
			HitRate:       float64(hits) / float64(len(values)) * 100,
			EdgePercent:   edge.Compute(recentAvg, avgLine),
			Trend:         trend,
			CalculatedAt:  now,
		}
		err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "player_name"}, {Name: "stat_type"}, {Name: "sport"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"season_avg", "recent_form_avg", "hit_rate", "edge_percent", "trend", "calculated_at", "updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			s.logger.Errorf("Failed to upsert analytics for %s/%s: %v", k.player, k.stat, err)
			continue
		}
		count++
	}

	s.logger.Infof("Recomputed %d analytics rows for %s", count, sport)
	return count, nil
}
