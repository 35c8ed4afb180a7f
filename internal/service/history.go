package service

import (
	"context"
	"log/slog"
	"time"

	"gamebot/internal/domain"
	"gamebot/internal/game"
	"gamebot/internal/logger"
	"gamebot/internal/repository"
	"gamebot/internal/session"
)

// HistoryStore is the part of the game history repository the service needs.
type HistoryStore interface {
	Create(ctx context.Context, gh *domain.GameHistory) error
	GetByUser(ctx context.Context, userID int64, limit int) ([]*domain.GameHistory, error)
	GetUserStats(ctx context.Context, userID int64, since time.Time) (*repository.UserStats, error)
}

// HistoryService records finished games and answers stats queries.
type HistoryService struct {
	store HistoryStore
	log   *slog.Logger
}

func NewHistoryService(store HistoryStore) *HistoryService {
	return &HistoryService{store: store, log: logger.Component("history")}
}

// Record сохраняет результат партии. Реализует session.Recorder.
func (s *HistoryService) Record(ctx context.Context, res session.Result) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	gh := ToHistory(res)
	if err := s.store.Create(ctx, gh); err != nil {
		return err
	}
	s.log.Debug("game recorded", "user_id", res.UserID, "game", res.Kind, "id", gh.ID)
	return nil
}

func (s *HistoryService) Stats(ctx context.Context, userID int64) (*repository.UserStats, error) {
	return s.store.GetUserStats(ctx, userID, time.Time{})
}

func (s *HistoryService) Recent(ctx context.Context, userID int64, limit int) ([]*domain.GameHistory, error) {
	return s.store.GetByUser(ctx, userID, limit)
}

// ToHistory maps a dispatcher result onto a game_history row.
func ToHistory(res session.Result) *domain.GameHistory {
	result := domain.GameResultAborted
	if !res.Aborted {
		switch res.Outcome {
		case game.OutcomeWin:
			result = domain.GameResultWin
		case game.OutcomeLoss:
			result = domain.GameResultLose
		}
	}

	var duration int64
	if !res.StartedAt.IsZero() && res.FinishedAt.After(res.StartedAt) {
		duration = res.FinishedAt.Sub(res.StartedAt).Milliseconds()
	}

	return &domain.GameHistory{
		UserID:     res.UserID,
		GameType:   string(res.Kind),
		Transport:  res.Transport,
		Result:     result,
		Details:    map[string]any{"title": res.Kind.Title()},
		StartedAt:  res.StartedAt,
		DurationMs: duration,
	}
}
