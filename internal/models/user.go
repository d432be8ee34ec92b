package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	LastLoginAt  time.Time `json:"last_login_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}

func (User) TableName() string {
	return "users"
}

type Profile struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	DisplayName    string    `json:"display_name"`
	FavoriteSport  string    `json:"favorite_sport"`
	DefaultMinEdge float64   `json:"default_min_edge"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

// AccessCode gates premium endpoints. Codes are redeemed at most
// MaxRedemptions times and may carry an expiry.
type AccessCode struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Code           string     `gorm:"not null;uniqueIndex" json:"code"`
	Description    string     `json:"description"`
	MaxRedemptions int        `gorm:"default:1" json:"max_redemptions"`
	Redemptions    int        `gorm:"default:0" json:"redemptions"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (AccessCode) TableName() string {
	return "access_codes"
}

// NewAccessCode mints a random access code.
func NewAccessCode(description string, maxRedemptions int, expiresAt *time.Time) AccessCode {
	return AccessCode{
		Code:           uuid.NewString(),
		Description:    description,
		MaxRedemptions: maxRedemptions,
		ExpiresAt:      expiresAt,
	}
}

type UserAccess struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"not null;uniqueIndex:idx_user_access_user_code" json:"user_id"`
	AccessCodeID uint      `gorm:"not null;uniqueIndex:idx_user_access_user_code" json:"access_code_id"`
	GrantedAt    time.Time `json:"granted_at"`
	CreatedAt    time.Time `json:"created_at"`

	AccessCode *AccessCode `gorm:"foreignKey:AccessCodeID" json:"access_code,omitempty"`
}

func (UserAccess) TableName() string {
	return "user_access"
}
