package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/internal/providers"
	"github.com/propedge/propedge/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gdb.AutoMigrate(
		&models.LiveOdds{},
		&models.PlayerStat{},
		&models.PlayerMatchup{},
		&models.PropAnalytics{},
		&models.GameSchedule{},
	))
	return &database.DB{DB: gdb}
}

type stubOddsSource struct {
	quotes []providers.OddsQuote
}

func (s *stubOddsSource) GetPlayerProps(sport string) ([]providers.OddsQuote, error) {
	return s.quotes, nil
}

type stubStatsSource struct {
	lines []providers.StatLine
}

func (s *stubStatsSource) GetRecentStats(sport, playerName string, limit int) ([]providers.StatLine, error) {
	return s.lines, nil
}

type stubScheduleSource struct {
	games []providers.ScheduledGame
}

func (s *stubScheduleSource) GetSchedule(sport, date string) ([]providers.ScheduledGame, error) {
	return s.games, nil
}

type recordingCache struct {
	deleted  []string
	patterns []string
}

func (c *recordingCache) Delete(ctx context.Context, keys ...string) error {
	c.deleted = append(c.deleted, keys...)
	return nil
}

func (c *recordingCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	return nil
}

func newTestIngest(t *testing.T, db *database.DB, odds *stubOddsSource, stats *stubStatsSource, schedule *stubScheduleSource) *IngestService {
	t.Helper()
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	if odds == nil {
		odds = &stubOddsSource{}
	}
	if stats == nil {
		stats = &stubStatsSource{}
	}
	if schedule == nil {
		schedule = &stubScheduleSource{}
	}
	return NewIngestService(db, nil, odds, stats, schedule, nil, log)
}

func TestRefreshOddsIdempotent(t *testing.T) {
	db := newTestDB(t)
	odds := &stubOddsSource{quotes: []providers.OddsQuote{
		{PlayerName: "Player X", Team: "BOS", StatType: "Points", Line: 24.5, OverOdds: "-110", UnderOdds: "-110", Sportsbook: "DraftKings"},
		{PlayerName: "Player X", Team: "BOS", StatType: "Points", Line: 25.5, OverOdds: "-115", UnderOdds: "-105", Sportsbook: "FanDuel"},
	}}
	svc := newTestIngest(t, db, odds, nil, nil)
	ctx := context.Background()

	count, err := svc.RefreshOdds(ctx, "nba")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Re-running with identical data must not create duplicates.
	_, err = svc.RefreshOdds(ctx, "nba")
	require.NoError(t, err)

	var rows int64
	require.NoError(t, db.Model(&models.LiveOdds{}).Count(&rows).Error)
	assert.Equal(t, int64(2), rows)
}

func TestRefreshOddsLastWriterWins(t *testing.T) {
	db := newTestDB(t)
	odds := &stubOddsSource{quotes: []providers.OddsQuote{
		{PlayerName: "Player X", StatType: "Points", Line: 24.5, Sportsbook: "DraftKings"},
	}}
	svc := newTestIngest(t, db, odds, nil, nil)
	ctx := context.Background()

	_, err := svc.RefreshOdds(ctx, "nba")
	require.NoError(t, err)

	odds.quotes[0].Line = 26.5
	_, err = svc.RefreshOdds(ctx, "nba")
	require.NoError(t, err)

	var row models.LiveOdds
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, 26.5, row.Line)
}

func TestRefreshOddsInvalidatesOpportunityCache(t *testing.T) {
	db := newTestDB(t)
	odds := &stubOddsSource{quotes: []providers.OddsQuote{
		{PlayerName: "Player X", StatType: "Points", Line: 24.5, Sportsbook: "DraftKings"},
	}}
	cache := &recordingCache{}
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	svc := NewIngestService(db, cache, odds, &stubStatsSource{}, &stubScheduleSource{}, nil, log)

	_, err := svc.RefreshOdds(context.Background(), "nba")
	require.NoError(t, err)

	// Raw odds and every ranked opportunity view must be dropped together,
	// or GET /opportunities keeps serving the pre-refresh list until TTL.
	assert.Contains(t, cache.deleted, OddsCacheKey("nba"))
	assert.Contains(t, cache.patterns, "opportunities:*")
}

func TestRefreshScheduleStatusReplaced(t *testing.T) {
	db := newTestDB(t)
	schedule := &stubScheduleSource{games: []providers.ScheduledGame{
		{ExternalID: "401585601", HomeTeam: "Boston Celtics", AwayTeam: "Denver Nuggets", GameDate: "2025-01-15", Status: "scheduled"},
	}}
	svc := newTestIngest(t, db, nil, nil, schedule)
	ctx := context.Background()

	_, err := svc.RefreshSchedule(ctx, "nba", "20250115")
	require.NoError(t, err)

	// Same game submitted again with a different status: exactly one row,
	// reflecting the most recent status.
	schedule.games[0].Status = "live"
	schedule.games[0].HomeScore = 55
	_, err = svc.RefreshSchedule(ctx, "nba", "20250115")
	require.NoError(t, err)

	var rows []models.GameSchedule
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "live", rows[0].Status)
	assert.Equal(t, 55, rows[0].HomeScore)
}

func TestRefreshStatsProvenance(t *testing.T) {
	db := newTestDB(t)
	stats := &stubStatsSource{lines: []providers.StatLine{
		{PlayerName: "Player X", StatType: "Points", Value: 28, GameDate: "2025-01-10", Season: 2025},
		{PlayerName: "Sample Player", StatType: "Points", Value: 20, GameDate: "2025-01-10", Season: 2025, Synthetic: true},
	}}
	svc := newTestIngest(t, db, nil, stats, nil)

	_, err := svc.RefreshStats(context.Background(), "nba", "")
	require.NoError(t, err)

	var real models.PlayerStat
	require.NoError(t, db.Where("player_name = ?", "Player X").First(&real).Error)
	assert.Equal(t, models.ProvenanceLive, real.Source)

	var synth models.PlayerStat
	require.NoError(t, db.Where("player_name = ?", "Sample Player").First(&synth).Error)
	assert.Equal(t, models.ProvenanceSynthetic, synth.Source)
}

func TestPopulateMatchupsBatches(t *testing.T) {
	db := newTestDB(t)
	svc := newTestIngest(t, db, nil, nil, nil)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.GameSchedule{
		GameKey: "nba:1", Sport: "nba", HomeTeam: "BOS", AwayTeam: "DEN", GameDate: "2025-01-10",
	}).Error)
	require.NoError(t, db.Create(&models.PlayerStat{
		PlayerName: "Player X", Team: "BOS", StatType: "Points", Value: 28, GameDate: "2025-01-10", Season: 2025,
	}).Error)

	count, err := svc.PopulateMatchups(ctx, "nba")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var matchup models.PlayerMatchup
	require.NoError(t, db.First(&matchup).Error)
	assert.Equal(t, "DEN", matchup.Opponent)

	// Idempotent re-run
	_, err = svc.PopulateMatchups(ctx, "nba")
	require.NoError(t, err)
	var rows int64
	require.NoError(t, db.Model(&models.PlayerMatchup{}).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)
}
