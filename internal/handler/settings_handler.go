package handler

import (
	"net/http"

	"loyalty/internal/repository"

	"github.com/gin-gonic/gin"
)

// SettingsHandler manages the runtime overrides for program configuration
// (accrual rate, referral bonus amounts).
type SettingsHandler struct {
	settingRepo *repository.SettingRepository
}

func NewSettingsHandler(settingRepo *repository.SettingRepository) *SettingsHandler {
	return &SettingsHandler{settingRepo: settingRepo}
}

// GET /admin/settings
func (h *SettingsHandler) List(c *gin.Context) {
	list, err := h.settingRepo.GetAll()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": list})
}

// PUT /admin/settings  { "key": "...", "value": "..." }
func (h *SettingsHandler) Set(c *gin.Context) {
	var req struct {
		Key   string `json:"key" binding:"required"`
		Value string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key and value required"})
		return
	}
	if err := h.settingRepo.Set(req.Key, req.Value); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": true})
}
