package handlers

import (
	"context"

	"gamebot/internal/domain"
	"gamebot/internal/repository"
)

// History is the read side of the game history service.
type History interface {
	Stats(ctx context.Context, userID int64) (*repository.UserStats, error)
	Recent(ctx context.Context, userID int64, limit int) ([]*domain.GameHistory, error)
}

// TokenIssuer signs tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID int64) (string, error)
}

type Handler struct {
	History  History
	Tokens   TokenIssuer
	BotToken string
}

// NewHandler builds the API handler. history may be nil when no database is
// configured; botToken may be empty, which disables Telegram login.
func NewHandler(history History, tokens TokenIssuer, botToken string) *Handler {
	return &Handler{
		History:  history,
		Tokens:   tokens,
		BotToken: botToken,
	}
}

// getUserID извлекает user_id из контекста Gin
func getUserID(c interface{ Get(string) (any, bool) }) (int64, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	switch v := uidVal.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
