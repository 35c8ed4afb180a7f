package domain

import "time"

// GameResult - итог сыгранной партии
type GameResult string

const (
	GameResultWin     GameResult = "win"
	GameResultLose    GameResult = "lose"
	GameResultAborted GameResult = "aborted"
)

// GameHistory - запись истории игры
type GameHistory struct {
	ID         int64          `db:"id" json:"id"`
	UserID     int64          `db:"user_id" json:"user_id"`
	GameType   string         `db:"game_type" json:"game_type"`
	Transport  string         `db:"transport" json:"transport"`
	Result     GameResult     `db:"result" json:"result"`
	Details    map[string]any `db:"details" json:"details,omitempty"`
	StartedAt  time.Time      `db:"started_at" json:"started_at"`
	DurationMs int64          `db:"duration_ms" json:"duration_ms"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
