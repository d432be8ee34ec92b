package models

import (
	"time"
)

// Parlay is a user's saved bet slip; picks reference live props by value,
// not by row ID, so a slip survives odds refreshes.
type Parlay struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `json:"name"`
	Sport     string    `json:"sport"`
	IsSGP     bool      `gorm:"default:false" json:"is_sgp"` // same-game parlay
	GameKey   string    `json:"game_key,omitempty"`          // set when IsSGP
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Picks []ParlayPick `gorm:"foreignKey:ParlayID;constraint:OnDelete:CASCADE" json:"picks"`
}

func (Parlay) TableName() string {
	return "parlays"
}

type ParlayPick struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ParlayID   uint      `gorm:"not null;index" json:"parlay_id"`
	PlayerName string    `gorm:"not null" json:"player_name"`
	StatType   string    `gorm:"not null" json:"stat_type"`
	Line       float64   `json:"line"`
	Side       string    `json:"side"` // "over" or "under"
	Odds       string    `json:"odds"` // American format at time of pick
	Sportsbook string    `json:"sportsbook"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ParlayPick) TableName() string {
	return "parlay_picks"
}
