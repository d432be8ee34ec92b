package models

import (
	"time"
)

// PropAnalytics is a derived summary per (player, stat type, sport).
// Recomputed wholesale on each population run; there is no incremental
// update path, which keeps the recompute trivially idempotent.
type PropAnalytics struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PlayerName    string    `gorm:"not null;uniqueIndex:idx_analytics_player_stat_sport" json:"player_name"`
	StatType      string    `gorm:"not null;uniqueIndex:idx_analytics_player_stat_sport" json:"stat_type"`
	Sport         string    `gorm:"not null;uniqueIndex:idx_analytics_player_stat_sport" json:"sport"`
	SeasonAvg     float64   `json:"season_avg"`
	RecentFormAvg float64   `json:"recent_form_avg"`
	HitRate       float64   `json:"hit_rate"` // share of games clearing the current line
	EdgePercent   float64   `json:"edge_percent"`
	Trend         string    `json:"trend"` // "up", "down", "steady"
	CalculatedAt  time.Time `json:"calculated_at"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (PropAnalytics) TableName() string {
	return "prop_analytics"
}
