package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/propedge/propedge/internal/api/middleware"
	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/config"
	"github.com/propedge/propedge/pkg/database"
	"github.com/propedge/propedge/pkg/utils"
)

type AuthHandler struct {
	db  *database.DB
	cfg *config.Config
}

func NewAuthHandler(db *database.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg}
}

type SignupRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"display_name"`
}

type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RedeemRequest struct {
	Code string `json:"code" binding:"required"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Signup creates a user with a hashed password and returns a session token.
// POST /api/v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing models.User
	err := h.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		utils.SendConflict(c, "Email already registered")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.SendInternalError(c, "Failed to check existing user")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.SendInternalError(c, "Failed to create user")
		return
	}

	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		IsActive:     true,
		LastLoginAt:  time.Now(),
		Profile: &models.Profile{
			DisplayName:    req.DisplayName,
			DefaultMinEdge: 5.0,
		},
	}
	if err := h.db.Create(&user).Error; err != nil {
		utils.SendInternalError(c, "Failed to create user")
		return
	}

	token, expiresAt, err := h.issueToken(&user)
	if err != nil {
		utils.SendInternalError(c, "Failed to generate token")
		return
	}

	utils.SendSuccess(c, AuthResponse{Token: token, ExpiresAt: expiresAt, User: &user})
}

// Signin verifies credentials and returns a session token.
// POST /api/v1/auth/signin
func (h *AuthHandler) Signin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := h.db.Preload("Profile").Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.SendUnauthorized(c, "Invalid email or password")
		return
	}
	if err != nil {
		utils.SendInternalError(c, "Failed to load user")
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		utils.SendUnauthorized(c, "Invalid email or password")
		return
	}
	if !user.IsActive {
		utils.SendForbidden(c, "Account deactivated")
		return
	}

	h.db.Model(&user).UpdateColumn("last_login_at", time.Now())

	token, expiresAt, err := h.issueToken(&user)
	if err != nil {
		utils.SendInternalError(c, "Failed to generate token")
		return
	}

	utils.SendSuccess(c, AuthResponse{Token: token, ExpiresAt: expiresAt, User: &user})
}

// Me returns the authenticated user with profile and access grants.
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		utils.SendUnauthorized(c, "User ID not found")
		return
	}

	var user models.User
	if err := h.db.Preload("Profile").First(&user, userID).Error; err != nil {
		utils.SendInternalError(c, "Failed to load user")
		return
	}

	var grants []models.UserAccess
	if err := h.db.Preload("AccessCode").Where("user_id = ?", userID).Find(&grants).Error; err != nil {
		utils.SendInternalError(c, "Failed to load access grants")
		return
	}

	utils.SendSuccess(c, gin.H{
		"user":   user,
		"access": grants,
	})
}

// Redeem consumes an access code for the authenticated user. Redeeming the
// same code twice is a no-op conflict rather than a double redemption.
// POST /api/v1/auth/redeem
func (h *AuthHandler) Redeem(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == 0 {
		utils.SendUnauthorized(c, "User ID not found")
		return
	}

	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		var code models.AccessCode
		if err := tx.Where("code = ?", strings.TrimSpace(req.Code)).First(&code).Error; err != nil {
			return err
		}

		if code.ExpiresAt != nil && code.ExpiresAt.Before(time.Now()) {
			return errExpiredCode
		}
		if code.Redemptions >= code.MaxRedemptions {
			return errExhaustedCode
		}

		var existing models.UserAccess
		err := tx.Where("user_id = ? AND access_code_id = ?", userID, code.ID).First(&existing).Error
		if err == nil {
			return errAlreadyRedeemed
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if err := tx.Create(&models.UserAccess{
			UserID:       userID,
			AccessCodeID: code.ID,
			GrantedAt:    time.Now(),
		}).Error; err != nil {
			return err
		}

		return tx.Model(&code).UpdateColumn("redemptions", gorm.Expr("redemptions + 1")).Error
	})

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		utils.SendNotFound(c, "Access code not found")
	case errors.Is(err, errExpiredCode):
		utils.SendValidationError(c, "Access code expired", "")
	case errors.Is(err, errExhaustedCode):
		utils.SendValidationError(c, "Access code fully redeemed", "")
	case errors.Is(err, errAlreadyRedeemed):
		utils.SendConflict(c, "Access code already redeemed")
	case err != nil:
		utils.SendInternalError(c, "Failed to redeem access code")
	default:
		utils.SendSuccess(c, gin.H{"message": "Access granted"})
	}
}

var (
	errExpiredCode     = errors.New("access code expired")
	errExhaustedCode   = errors.New("access code fully redeemed")
	errAlreadyRedeemed = errors.New("access code already redeemed")
)

func (h *AuthHandler) issueToken(user *models.User) (string, time.Time, error) {
	expiresAt := time.Now().Add(24 * time.Hour)

	claims := &middleware.Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "propedge",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}
