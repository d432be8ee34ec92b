package models

import (
	"time"
)

// GameSchedule is one scheduled or in-progress game. GameKey is the canonical
// identity; ExternalID carries the provider's game ID when the upstream API
// supplies one so cross-fetcher de-duplication does not rely on team-name
// string matching.
type GameSchedule struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	GameKey    string     `gorm:"not null;uniqueIndex" json:"game_key"`
	ExternalID string     `gorm:"index" json:"external_id"`
	Sport      string     `gorm:"index" json:"sport"`
	HomeTeam   string     `gorm:"not null" json:"home_team"`
	AwayTeam   string     `gorm:"not null" json:"away_team"`
	HomeRecord string     `json:"home_record"`
	AwayRecord string     `json:"away_record"`
	GameDate   string     `gorm:"index" json:"game_date"` // YYYY-MM-DD
	GameTime   string     `json:"game_time"`
	Venue      string     `json:"venue"`
	Network    string     `json:"network"`
	Status     string     `gorm:"index" json:"status"` // "scheduled", "live", "final"
	HomeScore  int        `json:"home_score"`
	AwayScore  int        `json:"away_score"`
	Season     int        `json:"season"`
	Week       int        `json:"week"`
	DataSource Provenance `gorm:"default:live" json:"data_source"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (GameSchedule) TableName() string {
	return "games_schedule"
}
