package models

import (
	"time"
)

// PlayerStat is one player's result for one stat in one game. Append-mostly;
// the historical basis for recent-form averages.
type PlayerStat struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	PlayerName string     `gorm:"not null;uniqueIndex:idx_stat_player_stat_date" json:"player_name"`
	Team       string     `json:"team"`
	StatType   string     `gorm:"not null;uniqueIndex:idx_stat_player_stat_date" json:"stat_type"`
	Value      float64    `json:"value"`
	GameDate   string     `gorm:"not null;uniqueIndex:idx_stat_player_stat_date" json:"game_date"` // YYYY-MM-DD
	Season     int        `json:"season"`
	Source     Provenance `gorm:"default:live" json:"source"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (PlayerStat) TableName() string {
	return "player_stats"
}

// PlayerMatchup is head-to-head history for a player against one opponent.
type PlayerMatchup struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	PlayerName    string     `gorm:"not null;uniqueIndex:idx_matchup_key" json:"player_name"`
	PlayerTeam    string     `json:"player_team"`
	Opponent      string     `gorm:"not null;uniqueIndex:idx_matchup_key" json:"opponent"`
	OpponentTeam  string     `json:"opponent_team"`
	GameDate      string     `gorm:"not null;uniqueIndex:idx_matchup_key" json:"game_date"`
	StatType      string     `gorm:"not null;uniqueIndex:idx_matchup_key" json:"stat_type"`
	PlayerValue   float64    `json:"player_value"`
	OpponentValue float64    `json:"opponent_value"`
	Line          *float64   `json:"line,omitempty"`
	Result        string     `json:"result"` // "over", "under", "push"
	Sport         string     `gorm:"index" json:"sport"`
	Season        int        `json:"season"`
	Source        Provenance `gorm:"default:live" json:"source"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (PlayerMatchup) TableName() string {
	return "player_matchups"
}
