package repository

import (
	"context"
	"encoding/json"
	"time"

	"gamebot/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GameHistoryRepository struct {
	db *pgxpool.Pool
}

func NewGameHistoryRepository(db *pgxpool.Pool) *GameHistoryRepository {
	return &GameHistoryRepository{db: db}
}

// Create сохраняет запись игры в историю
func (r *GameHistoryRepository) Create(ctx context.Context, gh *domain.GameHistory) error {
	detailsJSON, err := json.Marshal(gh.Details)
	if err != nil || gh.Details == nil {
		detailsJSON = []byte("{}")
	}

	return r.db.QueryRow(ctx,
		`INSERT INTO game_history
			(user_id, game_type, transport, result, details, started_at, duration_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		gh.UserID,
		gh.GameType,
		gh.Transport,
		gh.Result,
		detailsJSON,
		gh.StartedAt,
		gh.DurationMs,
	).Scan(&gh.ID, &gh.CreatedAt)
}

// GetByUser возвращает историю игр пользователя, новые первыми
func (r *GameHistoryRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*domain.GameHistory, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, game_type, transport, result, details, started_at, duration_ms, created_at
		 FROM game_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

// GetByUserAndType возвращает историю игр определённого типа
func (r *GameHistoryRepository) GetByUserAndType(ctx context.Context, userID int64, gameType string, limit int) ([]*domain.GameHistory, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, game_type, transport, result, details, started_at, duration_ms, created_at
		 FROM game_history
		 WHERE user_id = $1 AND game_type = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		userID, gameType, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRows(rows)
}

// UserStats - статистика пользователя
type UserStats struct {
	UserID     int64        `json:"user_id"`
	TotalGames int          `json:"total_games"`
	Wins       int          `json:"wins"`
	Losses     int          `json:"losses"`
	Aborted    int          `json:"aborted"`
	ByGame     []*GameStats `json:"by_game"`
}

// GameStats - статистика по одному типу игры
type GameStats struct {
	GameType string `json:"game_type"`
	Games    int    `json:"games"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
}

// GetUserStats возвращает статистику пользователя с момента since
func (r *GameHistoryRepository) GetUserStats(ctx context.Context, userID int64, since time.Time) (*UserStats, error) {
	stats := &UserStats{UserID: userID}

	err := r.db.QueryRow(ctx,
		`SELECT
			COUNT(*) as total_games,
			COUNT(*) FILTER (WHERE result = 'win') as wins,
			COUNT(*) FILTER (WHERE result = 'lose') as losses,
			COUNT(*) FILTER (WHERE result = 'aborted') as aborted
		 FROM game_history
		 WHERE user_id = $1 AND created_at >= $2`,
		userID, since,
	).Scan(&stats.TotalGames, &stats.Wins, &stats.Losses, &stats.Aborted)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT
			game_type,
			COUNT(*) as games,
			COUNT(*) FILTER (WHERE result = 'win') as wins,
			COUNT(*) FILTER (WHERE result = 'lose') as losses
		 FROM game_history
		 WHERE user_id = $1 AND created_at >= $2
		 GROUP BY game_type
		 ORDER BY games DESC, game_type`,
		userID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var gs GameStats
		if err := rows.Scan(&gs.GameType, &gs.Games, &gs.Wins, &gs.Losses); err != nil {
			return nil, err
		}
		stats.ByGame = append(stats.ByGame, &gs)
	}
	return stats, rows.Err()
}

func scanRows(rows pgx.Rows) ([]*domain.GameHistory, error) {
	var result []*domain.GameHistory

	for rows.Next() {
		var (
			gh          domain.GameHistory
			detailsJSON []byte
		)

		if err := rows.Scan(
			&gh.ID, &gh.UserID, &gh.GameType, &gh.Transport, &gh.Result,
			&detailsJSON, &gh.StartedAt, &gh.DurationMs, &gh.CreatedAt,
		); err != nil {
			return nil, err
		}

		if len(detailsJSON) > 0 {
			_ = json.Unmarshal(detailsJSON, &gh.Details)
		}

		result = append(result, &gh)
	}

	return result, rows.Err()
}
