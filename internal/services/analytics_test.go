package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propedge/propedge/internal/models"
)

func TestRecomputeDerivesAnalytics(t *testing.T) {
	db := newTestDB(t)
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	svc := NewAnalyticsService(db, log)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.LiveOdds{
		PlayerName: "Player X", Sport: "nba", StatType: "Points", Line: 24.5, Sportsbook: "DraftKings",
	}).Error)
	require.NoError(t, db.Create(&models.LiveOdds{
		PlayerName: "Player X", Sport: "nba", StatType: "Points", Line: 25.5, Sportsbook: "FanDuel",
	}).Error)

	// Newest first: the recent-five window averages 28.0, the full log 27.0.
	values := []float64{28, 29, 30, 27, 26, 25, 24}
	for i, v := range values {
		require.NoError(t, db.Create(&models.PlayerStat{
			PlayerName: "Player X", StatType: "Points", Value: v,
			GameDate: fmt.Sprintf("2025-01-%02d", 20-i), Season: 2025,
		}).Error)
	}

	count, err := svc.Recompute(ctx, "nba")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var row models.PropAnalytics
	require.NoError(t, db.First(&row).Error)
	assert.InDelta(t, 27.0, row.SeasonAvg, 0.01)
	assert.InDelta(t, 28.0, row.RecentFormAvg, 0.01)
	// Five of seven games cleared the 25.0 average line.
	assert.InDelta(t, 500.0/7.0, row.HitRate, 0.01)
	// 28.0 recent vs 27.0 season is inside the 5% steady band.
	assert.Equal(t, "steady", row.Trend)
}

func TestRecomputeIdempotent(t *testing.T) {
	db := newTestDB(t)
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	svc := NewAnalyticsService(db, log)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.LiveOdds{
		PlayerName: "Player X", Sport: "nba", StatType: "Points", Line: 25.0, Sportsbook: "DraftKings",
	}).Error)
	require.NoError(t, db.Create(&models.PlayerStat{
		PlayerName: "Player X", StatType: "Points", Value: 28, GameDate: "2025-01-10", Season: 2025,
	}).Error)

	_, err := svc.Recompute(ctx, "nba")
	require.NoError(t, err)
	_, err = svc.Recompute(ctx, "nba")
	require.NoError(t, err)

	var rows int64
	require.NoError(t, db.Model(&models.PropAnalytics{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}
