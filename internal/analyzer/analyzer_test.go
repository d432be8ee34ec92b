package analyzer

import (
	"context"
	"fmt"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, gormDB.AutoMigrate(
		&models.LiveOdds{},
		&models.PlayerStat{},
		&models.GameSchedule{},
	))

	return &database.DB{DB: gormDB}
}

func newTestService(t *testing.T, db *database.DB) *Service {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewService(db, nil, DefaultTunables(), logger)
}

func seedPlayerProp(t *testing.T, db *database.DB, player string, lines []float64, recent []float64) {
	t.Helper()
	books := []string{"DraftKings", "FanDuel", "BetMGM"}
	for i, line := range lines {
		require.NoError(t, db.Create(&models.LiveOdds{
			PlayerName: player,
			Sport:      "nba",
			StatType:   "Points",
			Line:       line,
			OverOdds:   "-110",
			UnderOdds:  "-110",
			Sportsbook: books[i%len(books)],
			DataSource: models.ProvenanceLive,
		}).Error)
	}
	for i, value := range recent {
		require.NoError(t, db.Create(&models.PlayerStat{
			PlayerName: player,
			StatType:   "Points",
			Value:      value,
			GameDate:   fmt.Sprintf("2026-01-%02d", 20-i),
			Source:     models.ProvenanceLive,
		}).Error)
	}
}

func TestPlayerPropsEdgeMath(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	// Average line 25.0 against a 28.0 recent average is a 12% edge.
	seedPlayerProp(t, db, "Jalen Marsh", []float64{24.5, 25.5}, []float64{28, 29, 30, 27, 26})

	opportunities, err := svc.Analyze(context.Background(), Request{Category: CategoryPlayerProps, Sport: "nba"})
	require.NoError(t, err)
	require.Len(t, opportunities, 1)

	opp := opportunities[0]
	assert.Equal(t, CategoryPlayerProps, opp.Category)
	assert.Equal(t, "Jalen Marsh", opp.PlayerName)
	assert.InDelta(t, 12.0, opp.EdgePercent, 0.01)
	assert.InDelta(t, 84.0, opp.Confidence, 0.01)
	assert.Equal(t, "medium", opp.Urgency, "exactly 12%% is medium, not high")
	assert.ElementsMatch(t, []string{"DraftKings", "FanDuel"}, opp.Books)
}

func TestPlayerPropsBelowThresholdSuppressed(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	// 25.5 recent vs 25.0 line is 2%, under the 5% floor.
	seedPlayerProp(t, db, "Quiet Player", []float64{25.0, 25.0}, []float64{25.5, 25.5, 25.5})

	opportunities, err := svc.Analyze(context.Background(), Request{Category: CategoryPlayerProps, Sport: "nba"})
	require.NoError(t, err)
	assert.Empty(t, opportunities)
}

func TestPlayerPropsRequireTwoBooks(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	// A 12% gap, but only one book quoting the market.
	seedPlayerProp(t, db, "Lone Quote", []float64{25.0}, []float64{28, 28, 28})

	opportunities, err := svc.Analyze(context.Background(), Request{Category: CategoryPlayerProps, Sport: "nba"})
	require.NoError(t, err)
	assert.Empty(t, opportunities)
}

func TestArbitrageRequiresFullPointSpread(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	// Exactly 1.0 point of spread qualifies.
	seedPlayerProp(t, db, "Wide Market", []float64{24.5, 25.5}, nil)
	// 0.5 points does not.
	seedPlayerProp(t, db, "Tight Market", []float64{25.0, 25.5}, nil)

	opportunities, err := svc.Analyze(context.Background(), Request{Category: CategoryArbitrage, Sport: "nba"})
	require.NoError(t, err)
	require.Len(t, opportunities, 1)

	opp := opportunities[0]
	assert.Equal(t, "Wide Market", opp.PlayerName)
	assert.InDelta(t, 100.0/24.5, opp.EdgePercent, 0.01)
	assert.Equal(t, 95.0, opp.Confidence)
	assert.Equal(t, "high", opp.Urgency)
}

func TestDerivativeMarketsImpliedTotal(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	// 110 / 0.46 = 239.1 implied, 19.6% off the 200 baseline.
	require.NoError(t, db.Create(&models.LiveOdds{
		PlayerName: "Lakers vs Suns",
		Sport:      "nba",
		StatType:   "First Half Total",
		Line:       110,
		Sportsbook: "DraftKings",
		DataSource: models.ProvenanceLive,
	}).Error)
	// 93 / 0.46 = 202.2, inside the 8% band.
	require.NoError(t, db.Create(&models.LiveOdds{
		PlayerName: "Celtics vs Knicks",
		Sport:      "nba",
		StatType:   "First Half Total",
		Line:       93,
		Sportsbook: "FanDuel",
		DataSource: models.ProvenanceLive,
	}).Error)

	opportunities, err := svc.Analyze(context.Background(), Request{Category: CategoryDerivativeMarkets, Sport: "nba"})
	require.NoError(t, err)
	require.Len(t, opportunities, 1)
	assert.Equal(t, "Lakers vs Suns", opportunities[0].PlayerName)
	assert.InDelta(t, 19.57, opportunities[0].EdgePercent, 0.05)
}

func TestLiveBettingNeedsLiveGameAndMovement(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	require.NoError(t, db.Create(&models.GameSchedule{
		GameKey:  "nba:2026-01-20:PHX@LAL",
		Sport:    "nba",
		HomeTeam: "Lakers",
		AwayTeam: "Suns",
		GameDate: "2026-01-20",
		Status:   "live",
	}).Error)

	// 25.5 -> 28.5 is a 10.5% move off the current line.
	require.NoError(t, db.Create(&models.LiveOdds{
		PlayerName:   "Hot Hand",
		Sport:        "nba",
		StatType:     "Points",
		Line:         28.5,
		OpeningLine:  25.5,
		LineMovement: "rising",
		Sportsbook:   "DraftKings",
		DataSource:   models.ProvenanceLive,
	}).Error)
	require.NoError(t, db.Create(&models.LiveOdds{
		PlayerName:   "Steady Hand",
		Sport:        "nba",
		StatType:     "Points",
		Line:         25.5,
		OpeningLine:  25.5,
		LineMovement: "stable",
		Sportsbook:   "DraftKings",
		DataSource:   models.ProvenanceLive,
	}).Error)

	opportunities, err := svc.Analyze(context.Background(), Request{Category: CategoryLiveBetting, Sport: "nba"})
	require.NoError(t, err)
	require.Len(t, opportunities, 1)

	opp := opportunities[0]
	assert.Equal(t, "Hot Hand", opp.PlayerName)
	assert.Equal(t, "high", opp.Urgency)
	assert.Equal(t, "2-5 minutes", opp.TimeToAct)
}

func TestCollegeSportsBookDisagreement(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	// Afternoon tip with no network coverage.
	require.NoError(t, db.Create(&models.GameSchedule{
		GameKey:  "ncaab:2026-01-20:DRKE@UNI",
		Sport:    "ncaab",
		HomeTeam: "Northern Iowa",
		AwayTeam: "Drake",
		GameDate: "2026-01-20",
		GameTime: "14:00",
		Status:   "scheduled",
	}).Error)

	books := []string{"DraftKings", "FanDuel", "BetMGM"}
	for i, line := range []float64{15.5, 18.5, 21.5} {
		require.NoError(t, db.Create(&models.LiveOdds{
			PlayerName: "Tucker Owens",
			Team:       "Drake",
			Sport:      "ncaab",
			StatType:   "Points",
			Line:       line,
			Sportsbook: books[i],
			DataSource: models.ProvenanceLive,
		}).Error)
	}

	opportunities, err := svc.Analyze(context.Background(), Request{Category: CategoryCollegeSports, Sport: "ncaab"})
	require.NoError(t, err)
	require.Len(t, opportunities, 1)

	opp := opportunities[0]
	assert.Equal(t, "Tucker Owens", opp.PlayerName)
	assert.Equal(t, "ncaab:2026-01-20:DRKE@UNI", opp.GameKey)
	assert.Equal(t, 68.0, opp.Confidence)
	assert.Equal(t, "medium", opp.Urgency)
}

func TestAnalyzeMinEdgeFilterEmpty(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	seedPlayerProp(t, db, "Jalen Marsh", []float64{24.5, 25.5}, []float64{28, 29, 30, 27, 26})

	opportunities, err := svc.Analyze(context.Background(), Request{Sport: "nba", MinEdge: 100})
	require.NoError(t, err)
	assert.Empty(t, opportunities)
}

func TestAnalyzeRejectsUnknownCategory(t *testing.T) {
	svc := newTestService(t, newTestDB(t))

	_, err := svc.Analyze(context.Background(), Request{Category: "moon_phase"})
	assert.Error(t, err)
}

func TestAnalyzeSortsByUrgencyThenEdge(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)

	// Medium urgency, 12% edge.
	seedPlayerProp(t, db, "Medium Mover", []float64{25.0, 25.0}, []float64{28, 28, 28})
	// Low urgency, 6% edge.
	seedPlayerProp(t, db, "Small Mover", []float64{50.0, 50.0}, []float64{53, 53, 53})
	// Arbitrage rides in at high urgency despite a smaller edge number.
	seedPlayerProp(t, db, "Split Books", []float64{30.0, 31.5}, nil)

	opportunities, err := svc.Analyze(context.Background(), Request{Sport: "nba"})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(opportunities), 3)

	assert.Equal(t, "high", opportunities[0].Urgency)
	for i := 1; i < len(opportunities); i++ {
		prev, cur := opportunities[i-1], opportunities[i]
		if prev.Urgency == cur.Urgency {
			assert.GreaterOrEqual(t, prev.EdgePercent, cur.EdgePercent)
		}
	}
}

func TestAnalyzeCapsOpportunityCount(t *testing.T) {
	db := newTestDB(t)
	svc := newTestService(t, db)
	svc.tun.MaxOpportunities = 3

	for i := 0; i < 6; i++ {
		seedPlayerProp(t, db, fmt.Sprintf("Player %d", i), []float64{25.0, 25.0}, []float64{28, 28, 28})
	}

	opportunities, err := svc.Analyze(context.Background(), Request{Sport: "nba"})
	require.NoError(t, err)
	assert.Len(t, opportunities, 3)
}
