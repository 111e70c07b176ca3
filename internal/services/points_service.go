package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
)

type pointsService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewPointsService(repo repositories.Repository, logger *slog.Logger) PointsService {
	return &pointsService{repo: repo, logger: logger}
}

func (s *pointsService) Balance(ctx context.Context, userID uint) (int, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get user: %w", err)
	}
	return user.Points, nil
}

// Credit adds points to the user's balance and records a ledger entry in the
// same transaction, so the balance and history never diverge.
func (s *pointsService) Credit(ctx context.Context, userID uint, amount int, reason string) (int, error) {
	if amount <= 0 {
		return 0, NewValidationError("amount", "must be positive", amount)
	}

	err := s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		if err := tx.User().UpdatePoints(ctx, userID, amount); err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to credit points: %w", err)
		}
		return tx.Points().CreateTransaction(ctx, &models.PointsTransaction{
			UserID: userID,
			Type:   models.PointsCredit,
			Amount: amount,
			Reason: reason,
		})
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Points credited", "user_id", userID, "amount", amount, "reason", reason)
	return s.Balance(ctx, userID)
}

func (s *pointsService) History(ctx context.Context, userID uint, page, limit int) ([]*models.PointsTransaction, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	transactions, total, err := s.repo.Points().ListByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list points transactions: %w", err)
	}
	return transactions, total, nil
}
