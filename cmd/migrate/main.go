package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/config"
	"github.com/propedge/propedge/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if err := ensureDatabase(cfg.DatabaseURL); err != nil {
		logrus.Fatalf("Failed to ensure database exists: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, database.Pool{
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	}, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

// ensureDatabase creates the target database when it does not exist yet, so
// a fresh environment needs nothing beyond a running postgres.
func ensureDatabase(databaseURL string) error {
	target, err := pq.ParseURL(databaseURL)
	if err != nil {
		// Not a postgres URL (e.g. sqlite in tests); nothing to bootstrap.
		return nil
	}

	dbName := ""
	adminDSN := make([]string, 0)
	for _, kv := range strings.Fields(target) {
		if strings.HasPrefix(kv, "dbname=") {
			dbName = strings.TrimPrefix(kv, "dbname=")
			continue
		}
		adminDSN = append(adminDSN, kv)
	}
	if dbName == "" {
		return nil
	}
	adminDSN = append(adminDSN, "dbname=postgres")

	admin, err := sql.Open("postgres", strings.Join(adminDSN, " "))
	if err != nil {
		return err
	}
	defer admin.Close()

	var exists bool
	err = admin.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)", dbName).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	logrus.Infof("Creating database %s", dbName)
	_, err = admin.Exec(fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(dbName)))
	return err
}

func runMigrations(db *database.DB) error {
	if err := db.AutoMigrate(
		&models.LiveOdds{},
		&models.PlayerStat{},
		&models.PlayerMatchup{},
		&models.PropAnalytics{},
		&models.GameSchedule{},
		&models.User{},
		&models.Profile{},
		&models.AccessCode{},
		&models.UserAccess{},
		&models.Parlay{},
		&models.ParlayPick{},
		&models.AIInsight{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_live_odds_sport_player ON live_odds(sport, player_name)",
		"CREATE INDEX IF NOT EXISTS idx_player_stats_player_date ON player_stats(player_name, game_date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_prop_analytics_edge ON prop_analytics(edge_percent DESC)",
		"CREATE INDEX IF NOT EXISTS idx_games_schedule_sport_date ON games_schedule(sport, game_date)",
		"CREATE INDEX IF NOT EXISTS idx_parlays_user ON parlays(user_id)",
		"CREATE INDEX IF NOT EXISTS idx_ai_insights_user ON ai_insights(user_id)",
	}
	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Reverse dependency order so foreign keys do not block the drops.
	tables := []string{
		"ai_insights",
		"parlay_picks",
		"parlays",
		"user_access",
		"access_codes",
		"profiles",
		"users",
		"prop_analytics",
		"player_matchups",
		"player_stats",
		"games_schedule",
		"live_odds",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

func seedData(db *database.DB) error {
	// Access codes for early users.
	expiry := time.Now().AddDate(0, 3, 0)
	codes := []models.AccessCode{
		models.NewAccessCode("Founding member batch", 50, &expiry),
		models.NewAccessCode("Beta tester batch", 100, &expiry),
		models.NewAccessCode("Internal testing", 10, nil),
	}
	if err := db.Create(&codes).Error; err != nil {
		return fmt.Errorf("failed to seed access codes: %w", err)
	}
	for _, code := range codes {
		logrus.Infof("Seeded access code %s (%s, %d uses)", code.Code, code.Description, code.MaxRedemptions)
	}

	// A small slate of prop odds so the analyzer has something to chew on
	// before the first live fetch.
	now := time.Now().UTC()
	odds := []models.LiveOdds{
		{PlayerName: "Luka Doncic", Team: "Dallas Mavericks", Sport: "nba", StatType: "Points", Line: 31.5, OverOdds: "-110", UnderOdds: "-110", Sportsbook: "DraftKings", DataSource: models.ProvenanceSynthetic, LastUpdated: now},
		{PlayerName: "Luka Doncic", Team: "Dallas Mavericks", Sport: "nba", StatType: "Points", Line: 32.5, OverOdds: "-115", UnderOdds: "-105", Sportsbook: "FanDuel", DataSource: models.ProvenanceSynthetic, LastUpdated: now},
		{PlayerName: "Nikola Jokic", Team: "Denver Nuggets", Sport: "nba", StatType: "Rebounds", Line: 12.5, OverOdds: "-120", UnderOdds: "+100", Sportsbook: "DraftKings", DataSource: models.ProvenanceSynthetic, LastUpdated: now},
		{PlayerName: "Nikola Jokic", Team: "Denver Nuggets", Sport: "nba", StatType: "Rebounds", Line: 13.5, OverOdds: "+105", UnderOdds: "-125", Sportsbook: "BetMGM", DataSource: models.ProvenanceSynthetic, LastUpdated: now},
	}
	if err := db.Create(&odds).Error; err != nil {
		return fmt.Errorf("failed to seed odds: %w", err)
	}

	stats := make([]models.PlayerStat, 0)
	lukaPoints := []float64{36, 33, 38, 30, 35}
	jokicRebounds := []float64{14, 12, 16, 13, 15}
	for i := 0; i < 5; i++ {
		date := now.AddDate(0, 0, -(i + 1)).Format("2006-01-02")
		stats = append(stats,
			models.PlayerStat{PlayerName: "Luka Doncic", Team: "Dallas Mavericks", StatType: "Points", Value: lukaPoints[i], GameDate: date, Season: now.Year(), Source: models.ProvenanceSynthetic},
			models.PlayerStat{PlayerName: "Nikola Jokic", Team: "Denver Nuggets", StatType: "Rebounds", Value: jokicRebounds[i], GameDate: date, Season: now.Year(), Source: models.ProvenanceSynthetic},
		)
	}
	if err := db.Create(&stats).Error; err != nil {
		return fmt.Errorf("failed to seed stats: %w", err)
	}

	games := []models.GameSchedule{
		{
			GameKey:    fmt.Sprintf("nba:%s:DEN@DAL", now.Format("2006-01-02")),
			Sport:      "nba",
			HomeTeam:   "Dallas Mavericks",
			AwayTeam:   "Denver Nuggets",
			GameDate:   now.Format("2006-01-02"),
			GameTime:   "19:30",
			Venue:      "American Airlines Center",
			Network:    "ESPN",
			Status:     "scheduled",
			Season:     now.Year(),
			DataSource: models.ProvenanceSynthetic,
		},
	}
	if err := db.Create(&games).Error; err != nil {
		return fmt.Errorf("failed to seed schedule: %w", err)
	}

	logrus.Infof("Seeded %d odds, %d stats, %d games", len(odds), len(stats), len(games))
	return nil
}
