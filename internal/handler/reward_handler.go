package handler

import (
	"net/http"
	"time"

	"loyalty/internal/models"
	"loyalty/internal/repository"
	"loyalty/internal/ws"

	"github.com/gin-gonic/gin"
)

type RewardHandler struct {
	rewardRepo *repository.RewardRepository
	feed       *ws.Hub
}

func NewRewardHandler(rewardRepo *repository.RewardRepository, feed *ws.Hub) *RewardHandler {
	return &RewardHandler{rewardRepo: rewardRepo, feed: feed}
}

// List returns the active catalog, optionally filtered by kind.
// GET /rewards?type=DISCOUNT
func (h *RewardHandler) List(c *gin.Context) {
	list, err := h.rewardRepo.List(c.Query("type"), true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": list, "count": len(list)})
}

// ListAll includes inactive rewards for the admin surface.
// GET /admin/rewards
func (h *RewardHandler) ListAll(c *gin.Context) {
	list, err := h.rewardRepo.List(c.Query("type"), false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rewards": list, "count": len(list)})
}

// Redeem exchanges the customer's points for the reward.
// POST /customers/:id/redeem  { "reward_id": 3 }
func (h *RewardHandler) Redeem(c *gin.Context) {
	customerID, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req struct {
		RewardID uint `json:"reward_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reward_id required"})
		return
	}
	ptx, err := h.rewardRepo.Redeem(customerID, req.RewardID)
	if err != nil {
		respondError(c, err)
		return
	}
	h.feed.Broadcast("reward.redeemed", customerID, ptx)
	c.JSON(http.StatusOK, gin.H{"transaction": ptx})
}

type rewardRequest struct {
	Name          string     `json:"name" binding:"required"`
	Kind          string     `json:"kind" binding:"required"`
	PointsCost    int64      `json:"points_cost" binding:"required"`
	ValueCents    int64      `json:"value_cents" binding:"required"`
	MinTierLevel  int        `json:"min_tier_level"`
	StockQuantity *int64     `json:"stock_quantity"`
	ValidFrom     *time.Time `json:"valid_from"`
	ValidUntil    *time.Time `json:"valid_until"`
	Terms         string     `json:"terms"`
}

// Create adds a catalog entry.
// POST /admin/rewards
func (h *RewardHandler) Create(c *gin.Context) {
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reward := &models.LoyaltyReward{
		Name:          req.Name,
		Kind:          req.Kind,
		PointsCost:    req.PointsCost,
		ValueCents:    req.ValueCents,
		MinTierLevel:  req.MinTierLevel,
		StockQuantity: req.StockQuantity,
		IsActive:      true,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		Terms:         req.Terms,
	}
	if reward.MinTierLevel < 1 {
		reward.MinTierLevel = 1
	}
	if err := h.rewardRepo.Create(reward); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"reward": reward})
}

// Update replaces the mutable fields of a catalog entry.
// PUT /admin/rewards/:id
func (h *RewardHandler) Update(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	reward, err := h.rewardRepo.GetByID(id)
	if err != nil {
		respondError(c, err)
		return
	}
	var req rewardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reward.Name = req.Name
	reward.Kind = req.Kind
	reward.PointsCost = req.PointsCost
	reward.ValueCents = req.ValueCents
	if req.MinTierLevel >= 1 {
		reward.MinTierLevel = req.MinTierLevel
	}
	reward.StockQuantity = req.StockQuantity
	reward.ValidFrom = req.ValidFrom
	reward.ValidUntil = req.ValidUntil
	reward.Terms = req.Terms
	if err := h.rewardRepo.Update(reward); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reward": reward})
}

// ToggleActive flips a reward's active flag.
// POST /admin/rewards/:id/toggle
func (h *RewardHandler) ToggleActive(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	reward, err := h.rewardRepo.ToggleActive(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reward": reward})
}

// Delete removes a catalog entry. Past redemptions are unaffected.
// DELETE /admin/rewards/:id
func (h *RewardHandler) Delete(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if err := h.rewardRepo.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
