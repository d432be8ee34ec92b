package models

import (
	"time"
)

// LiveOdds is one sportsbook quote for one player prop. The natural dedup
// key is (player, stat type, sportsbook); refreshes upsert on it.
type LiveOdds struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	PlayerName   string     `gorm:"not null;uniqueIndex:idx_odds_player_stat_book" json:"player_name"`
	Team         string     `json:"team"`
	Sport        string     `gorm:"index" json:"sport"` // "nba", "nfl", "mlb", "nhl", "ncaab"
	StatType     string     `gorm:"not null;uniqueIndex:idx_odds_player_stat_book" json:"stat_type"`
	Line         float64    `json:"line"`
	OverOdds     string     `json:"over_odds"`  // American format, e.g. "-110"
	UnderOdds    string     `json:"under_odds"` // American format, e.g. "+105"
	Sportsbook   string     `gorm:"not null;uniqueIndex:idx_odds_player_stat_book" json:"sportsbook"`
	Confidence   int        `json:"confidence"`    // 0-100 heuristic score
	ValueRating  string     `json:"value_rating"`  // "high", "medium", "low"
	LineMovement string     `json:"line_movement"` // "stable", "rising", "falling"
	OpeningLine  float64    `json:"opening_line"`
	DataSource   Provenance `gorm:"default:live" json:"data_source"`
	LastUpdated  time.Time  `json:"last_updated"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (LiveOdds) TableName() string {
	return "live_odds"
}
