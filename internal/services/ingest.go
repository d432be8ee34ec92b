package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm/clause"

	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/internal/providers"
	"github.com/propedge/propedge/pkg/database"
)

// OddsSource and friends are satisfied by the provider clients; the
// indirection keeps ingest testable against stubs.
type OddsSource interface {
	GetPlayerProps(sport string) ([]providers.OddsQuote, error)
}

type StatsSource interface {
	GetRecentStats(sport, playerName string, limit int) ([]providers.StatLine, error)
}

type ScheduleSource interface {
	GetSchedule(sport, date string) ([]providers.ScheduledGame, error)
}

type ScrapeSource interface {
	ScrapeProps(ctx context.Context, sport string) ([]providers.OddsQuote, error)
}

// CacheInvalidator is the slice of CacheService that ingest needs to expire
// stale reads after a refresh.
type CacheInvalidator interface {
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// IngestService normalizes provider payloads into rows and upserts them on
// their natural keys, so re-running a refresh with identical source data
// never changes row counts.
type IngestService struct {
	db       *database.DB
	cache    CacheInvalidator
	odds     OddsSource
	stats    StatsSource
	schedule ScheduleSource
	scraper  ScrapeSource
	hub      *Hub
	logger   *logrus.Logger
}

func NewIngestService(db *database.DB, cache CacheInvalidator, odds OddsSource, stats StatsSource, schedule ScheduleSource, hub *Hub, logger *logrus.Logger) *IngestService {
	return &IngestService{
		db:       db,
		cache:    cache,
		odds:     odds,
		stats:    stats,
		schedule: schedule,
		hub:      hub,
		logger:   logger,
	}
}

// SetScraper installs an optional consensus-line scraper whose quotes ride
// along with each odds refresh.
func (s *IngestService) SetScraper(scraper ScrapeSource) {
	s.scraper = scraper
}

// RefreshOdds pulls current prop quotes for a sport and upserts them keyed
// on (player, stat type, sportsbook). Last writer wins.
func (s *IngestService) RefreshOdds(ctx context.Context, sport string) (int, error) {
	quotes, err := s.odds.GetPlayerProps(sport)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch odds for %s: %w", sport, err)
	}

	if s.scraper != nil {
		scraped, err := s.scraper.ScrapeProps(ctx, sport)
		if err != nil {
			s.logger.Warnf("Consensus scrape failed for %s: %v", sport, err)
		} else {
			quotes = append(quotes, scraped...)
		}
	}

	now := time.Now().UTC()
	count := 0
	for _, quote := range quotes {
		row := models.LiveOdds{
			PlayerName:   quote.PlayerName,
			Team:         quote.Team,
			Sport:        sport,
			StatType:     quote.StatType,
			Line:         quote.Line,
			OverOdds:     quote.OverOdds,
			UnderOdds:    quote.UnderOdds,
			Sportsbook:   quote.Sportsbook,
			LineMovement: quote.LineMovement,
			OpeningLine:  quote.OpeningLine,
			DataSource:   provenanceFor(quote.Synthetic),
			LastUpdated:  now,
		}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "player_name"}, {Name: "stat_type"}, {Name: "sportsbook"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"team", "sport", "line", "over_odds", "under_odds",
				"line_movement", "opening_line", "data_source", "last_updated", "updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			s.logger.Errorf("Failed to upsert odds for %s/%s/%s: %v", quote.PlayerName, quote.StatType, quote.Sportsbook, err)
			continue
		}
		count++
	}

	if s.cache != nil {
		s.cache.Delete(ctx, OddsCacheKey(sport))
		// New lines invalidate every ranked opportunity list, including the
		// cross-sport "all" views.
		if err := s.cache.DeleteByPattern(ctx, "opportunities:*"); err != nil {
			s.logger.Warnf("Failed to invalidate opportunity cache after %s refresh: %v", sport, err)
		}
	}
	if s.hub != nil {
		s.hub.Broadcast(Event{Type: "odds_refreshed", Sport: sport, Count: count})
	}

	s.logger.Infof("Refreshed %d odds rows for %s", count, sport)
	return count, nil
}

// RefreshStats pulls recent game logs and upserts them keyed on
// (player, stat type, game date).
func (s *IngestService) RefreshStats(ctx context.Context, sport, playerName string) (int, error) {
	lines, err := s.stats.GetRecentStats(sport, playerName, 25)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch stats for %s: %w", sport, err)
	}

	count := 0
	for _, line := range lines {
		row := models.PlayerStat{
			PlayerName: line.PlayerName,
			Team:       line.Team,
			StatType:   line.StatType,
			Value:      line.Value,
			GameDate:   line.GameDate,
			Season:     line.Season,
			Source:     provenanceFor(line.Synthetic),
		}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_name"}, {Name: "stat_type"}, {Name: "game_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"team", "value", "season", "source", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			s.logger.Errorf("Failed to upsert stat for %s/%s/%s: %v", line.PlayerName, line.StatType, line.GameDate, err)
			continue
		}
		count++
	}

	s.logger.Infof("Refreshed %d stat rows for %s", count, sport)
	return count, nil
}

// RefreshSchedule pulls the scoreboard and upserts games on their canonical
// key. A re-upsert for the same game with a new status leaves exactly one
// row carrying the latest status.
func (s *IngestService) RefreshSchedule(ctx context.Context, sport, date string) (int, error) {
	games, err := s.schedule.GetSchedule(sport, date)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch schedule for %s: %w", sport, err)
	}

	count := 0
	for _, game := range games {
		row := models.GameSchedule{
			GameKey:    gameKey(sport, game),
			ExternalID: game.ExternalID,
			Sport:      sport,
			HomeTeam:   game.HomeTeam,
			AwayTeam:   game.AwayTeam,
			HomeRecord: game.HomeRecord,
			AwayRecord: game.AwayRecord,
			GameDate:   game.GameDate,
			GameTime:   game.GameTime,
			Venue:      game.Venue,
			Network:    game.Network,
			Status:     game.Status,
			HomeScore:  game.HomeScore,
			AwayScore:  game.AwayScore,
			Season:     game.Season,
			Week:       game.Week,
			DataSource: provenanceFor(game.Synthetic),
		}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "game_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"external_id", "home_record", "away_record", "game_time", "venue",
				"network", "status", "home_score", "away_score", "updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			s.logger.Errorf("Failed to upsert game %s: %v", row.GameKey, err)
			continue
		}
		count++
	}

	if s.cache != nil {
		s.cache.Delete(ctx, ScheduleCacheKey(sport, date))
	}
	s.logger.Infof("Refreshed %d schedule rows for %s", count, sport)
	return count, nil
}

// RefreshAll runs all three fetch paths for every supported sport. Each
// path fails or succeeds on its own; a dead provider never blocks the rest.
func (s *IngestService) RefreshAll(ctx context.Context, sports []string) {
	today := time.Now().UTC().Format("20060102")
	for _, sport := range sports {
		if _, err := s.RefreshOdds(ctx, sport); err != nil {
			s.logger.Errorf("Odds refresh failed for %s: %v", sport, err)
		}
		if _, err := s.RefreshStats(ctx, sport, ""); err != nil {
			s.logger.Errorf("Stats refresh failed for %s: %v", sport, err)
		}
		if _, err := s.RefreshSchedule(ctx, sport, today); err != nil {
			s.logger.Errorf("Schedule refresh failed for %s: %v", sport, err)
		}
	}
}

const matchupBatchSize = 100

// PopulateMatchups derives head-to-head rows from stored stats and the
// schedule, inserting in fixed-size batches. Batches are not atomic with
// each other; the conflict key keeps re-runs idempotent.
func (s *IngestService) PopulateMatchups(ctx context.Context, sport string) (int, error) {
	var stats []models.PlayerStat
	if err := s.db.WithContext(ctx).Where("player_stats.season >= ?", time.Now().Year()-1).Find(&stats).Error; err != nil {
		return 0, fmt.Errorf("failed to load stats: %w", err)
	}

	var games []models.GameSchedule
	if err := s.db.WithContext(ctx).Where("sport = ?", sport).Find(&games).Error; err != nil {
		return 0, fmt.Errorf("failed to load schedule: %w", err)
	}

	gamesByDate := make(map[string]models.GameSchedule)
	for _, game := range games {
		gamesByDate[game.GameDate+"|"+game.HomeTeam] = game
		gamesByDate[game.GameDate+"|"+game.AwayTeam] = game
	}

	batch := make([]models.PlayerMatchup, 0, matchupBatchSize)
	total := 0
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "player_name"}, {Name: "opponent"}, {Name: "game_date"}, {Name: "stat_type"}},
			DoUpdates: clause.AssignmentColumns([]string{"player_value", "result", "updated_at"}),
		}).Create(&batch).Error
		if err != nil {
			return err
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, stat := range stats {
		game, ok := gamesByDate[stat.GameDate+"|"+stat.Team]
		if !ok {
			continue
		}
		opponent := game.HomeTeam
		if opponent == stat.Team {
			opponent = game.AwayTeam
		}
		batch = append(batch, models.PlayerMatchup{
			PlayerName:  stat.PlayerName,
			PlayerTeam:  stat.Team,
			Opponent:    opponent,
			GameDate:    stat.GameDate,
			StatType:    stat.StatType,
			PlayerValue: stat.Value,
			Sport:       sport,
			Season:      stat.Season,
			Source:      stat.Source,
		})
		if len(batch) >= matchupBatchSize {
			if err := flush(); err != nil {
				return total, fmt.Errorf("failed to insert matchup batch: %w", err)
			}
		}
	}
	if err := flush(); err != nil {
		return total, fmt.Errorf("failed to insert matchup batch: %w", err)
	}

	s.logger.Infof("Populated %d matchup rows for %s", total, sport)
	return total, nil
}

func provenanceFor(synthetic bool) models.Provenance {
	if synthetic {
		return models.ProvenanceSynthetic
	}
	return models.ProvenanceLive
}

func gameKey(sport string, game providers.ScheduledGame) string {
	if game.ExternalID != "" {
		return sport + ":" + game.ExternalID
	}
	// No provider ID: fall back to the natural key.
	return fmt.Sprintf("%s:%s:%s@%s", sport, game.GameDate, game.AwayTeam, game.HomeTeam)
}
