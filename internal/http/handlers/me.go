package handlers

import (
	"net/http"
	"strconv"

	"gamebot/internal/game"
	"gamebot/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	defaultGamesLimit = 20
	maxGamesLimit     = 100
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	games := make([]gin.H, 0, len(game.Kinds()))
	for _, k := range game.Kinds() {
		games = append(games, gin.H{"id": k, "title": k.Title()})
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":         userID,
		"games":           games,
		"history_enabled": h.History != nil,
	})
}

func (h *Handler) MyGames(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}

	limit := defaultGamesLimit
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxGamesLimit)
	}

	games, err := h.History.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		logger.Error("failed to get games", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get games"})
		return
	}
	if games == nil {
		c.JSON(http.StatusOK, gin.H{"games": []any{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

func (h *Handler) MyStats(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}
	if h.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}

	stats, err := h.History.Stats(c.Request.Context(), userID)
	if err != nil {
		logger.Error("failed to get stats", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
