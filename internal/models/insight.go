package models

import (
	"time"

	"gorm.io/datatypes"
)

// AIInsight stores each LLM request/response pair for audit and analytics.
type AIInsight struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       uint           `gorm:"index" json:"user_id"`
	Kind         string         `gorm:"index" json:"kind"` // "insight", "assistant", "enrichment"
	Sport        string         `json:"sport"`
	PlayerName   string         `json:"player_name,omitempty"`
	AnalysisType string         `json:"analysis_type,omitempty"`
	Request      datatypes.JSON `json:"request"`
	Response     datatypes.JSON `json:"response"`
	RowsAnalyzed int            `json:"rows_analyzed"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (AIInsight) TableName() string {
	return "ai_insights"
}
