package handlers

import (
	"net/http"
	"time"

	"gamebot/internal/logger"
	"gamebot/internal/telegram"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data"`
}

// Auth exchanges Telegram WebApp init data for an API token. The token's
// user_id is the Telegram user ID, so bot and web games share one history.
func (h *Handler) Auth(c *gin.Context) {
	if h.BotToken == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "telegram login disabled"})
		return
	}

	var req AuthRequest
	if err := c.BindJSON(&req); err != nil || req.InitData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	user, err := telegram.ValidateInitData(req.InitData, h.BotToken, time.Now())
	if err != nil {
		logger.Debug("init data rejected", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
		return
	}

	token, err := h.Tokens.Generate(user.ID)
	if err != nil {
		logger.Error("token generation failed", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":         user.ID,
			"username":   user.Username,
			"first_name": user.FirstName,
		},
	})
}
