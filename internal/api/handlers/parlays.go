package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/propedge/propedge/internal/api/middleware"
	"github.com/propedge/propedge/internal/models"
	"github.com/propedge/propedge/pkg/database"
	"github.com/propedge/propedge/pkg/utils"
)

type ParlayHandler struct {
	db *database.DB
}

func NewParlayHandler(db *database.DB) *ParlayHandler {
	return &ParlayHandler{db: db}
}

type parlayPickRequest struct {
	PlayerName string  `json:"player_name" binding:"required"`
	StatType   string  `json:"stat_type" binding:"required"`
	Line       float64 `json:"line"`
	Side       string  `json:"side" binding:"required,oneof=over under"`
	Odds       string  `json:"odds"`
	Sportsbook string  `json:"sportsbook"`
}

type parlayRequest struct {
	Name    string              `json:"name"`
	Sport   string              `json:"sport" binding:"required"`
	IsSGP   bool                `json:"is_sgp"`
	GameKey string              `json:"game_key"`
	Picks   []parlayPickRequest `json:"picks" binding:"required,min=1,dive"`
}

// ListParlays returns the user's saved slips.
// GET /api/v1/parlays
func (h *ParlayHandler) ListParlays(c *gin.Context) {
	userID := middleware.UserID(c)

	var parlays []models.Parlay
	err := h.db.WithContext(c.Request.Context()).
		Preload("Picks").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&parlays).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to load parlays")
		return
	}

	utils.SendSuccess(c, gin.H{"parlays": parlays, "count": len(parlays)})
}

// GetParlay returns one slip, owner only.
// GET /api/v1/parlays/:id
func (h *ParlayHandler) GetParlay(c *gin.Context) {
	userID := middleware.UserID(c)

	var parlay models.Parlay
	err := h.db.WithContext(c.Request.Context()).
		Preload("Picks").
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&parlay).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.SendNotFound(c, "Parlay not found")
		return
	}
	if err != nil {
		utils.SendInternalError(c, "Failed to load parlay")
		return
	}

	utils.SendSuccess(c, parlay)
}

// CreateParlay saves a new slip. Same-game parlays must name their game.
// POST /api/v1/parlays
func (h *ParlayHandler) CreateParlay(c *gin.Context) {
	userID := middleware.UserID(c)

	var req parlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if req.IsSGP && req.GameKey == "" {
		utils.SendValidationError(c, "Same-game parlays require a game_key", "")
		return
	}

	parlay := models.Parlay{
		UserID:  userID,
		Name:    req.Name,
		Sport:   req.Sport,
		IsSGP:   req.IsSGP,
		GameKey: req.GameKey,
	}
	for _, pick := range req.Picks {
		parlay.Picks = append(parlay.Picks, models.ParlayPick{
			PlayerName: pick.PlayerName,
			StatType:   pick.StatType,
			Line:       pick.Line,
			Side:       pick.Side,
			Odds:       pick.Odds,
			Sportsbook: pick.Sportsbook,
		})
	}

	if err := h.db.WithContext(c.Request.Context()).Create(&parlay).Error; err != nil {
		utils.SendInternalError(c, "Failed to create parlay")
		return
	}

	utils.SendSuccess(c, parlay)
}

// UpdateParlay replaces a slip's metadata and picks.
// PUT /api/v1/parlays/:id
func (h *ParlayHandler) UpdateParlay(c *gin.Context) {
	userID := middleware.UserID(c)

	var req parlayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}
	if req.IsSGP && req.GameKey == "" {
		utils.SendValidationError(c, "Same-game parlays require a game_key", "")
		return
	}

	var parlay models.Parlay
	err := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		First(&parlay).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.SendNotFound(c, "Parlay not found")
		return
	}
	if err != nil {
		utils.SendInternalError(c, "Failed to load parlay")
		return
	}

	err = h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("parlay_id = ?", parlay.ID).Delete(&models.ParlayPick{}).Error; err != nil {
			return err
		}

		parlay.Name = req.Name
		parlay.Sport = req.Sport
		parlay.IsSGP = req.IsSGP
		parlay.GameKey = req.GameKey
		parlay.Picks = nil
		for _, pick := range req.Picks {
			parlay.Picks = append(parlay.Picks, models.ParlayPick{
				ParlayID:   parlay.ID,
				PlayerName: pick.PlayerName,
				StatType:   pick.StatType,
				Line:       pick.Line,
				Side:       pick.Side,
				Odds:       pick.Odds,
				Sportsbook: pick.Sportsbook,
			})
		}
		return tx.Save(&parlay).Error
	})
	if err != nil {
		utils.SendInternalError(c, "Failed to update parlay")
		return
	}

	utils.SendSuccess(c, parlay)
}

// DeleteParlay removes a slip and its picks.
// DELETE /api/v1/parlays/:id
func (h *ParlayHandler) DeleteParlay(c *gin.Context) {
	userID := middleware.UserID(c)

	result := h.db.WithContext(c.Request.Context()).
		Where("id = ? AND user_id = ?", c.Param("id"), userID).
		Delete(&models.Parlay{})
	if result.Error != nil {
		utils.SendInternalError(c, "Failed to delete parlay")
		return
	}
	if result.RowsAffected == 0 {
		utils.SendNotFound(c, "Parlay not found")
		return
	}

	utils.SendSuccess(c, gin.H{"message": "Parlay deleted"})
}
