package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
)

type PointsPostgreSQL struct {
	db *gorm.DB
}

func NewPointsPostgreSQL(db *gorm.DB) repositories.PointsRepository {
	return &PointsPostgreSQL{db: db}
}

func (p PointsPostgreSQL) CreateTransaction(ctx context.Context, tx *models.PointsTransaction) error {
	return p.db.WithContext(ctx).Create(tx).Error
}

func (p PointsPostgreSQL) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.PointsTransaction, int64, error) {
	var transactions []*models.PointsTransaction
	var total int64

	query := p.db.WithContext(ctx).
		Model(&models.PointsTransaction{}).
		Where("user_id = ?", userID)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Order("created_at DESC").Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

type FavoritePostgreSQL struct {
	db *gorm.DB
}

func NewFavoritePostgreSQL(db *gorm.DB) repositories.FavoriteRepository {
	return &FavoritePostgreSQL{db: db}
}

func (f FavoritePostgreSQL) Add(ctx context.Context, favorite *models.Favorite) error {
	return f.db.WithContext(ctx).Create(favorite).Error
}

func (f FavoritePostgreSQL) Remove(ctx context.Context, userID, courseID uint) error {
	return f.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&models.Favorite{}).Error
}

func (f FavoritePostgreSQL) ListByUser(ctx context.Context, userID uint) ([]*models.Favorite, error) {
	var favorites []*models.Favorite
	if err := f.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Course").
		Preload("Course.Author").
		Order("created_at DESC").
		Find(&favorites).Error; err != nil {
		return nil, err
	}
	return favorites, nil
}

func (f FavoritePostgreSQL) Exists(ctx context.Context, userID, courseID uint) (bool, error) {
	var count int64
	if err := f.db.WithContext(ctx).
		Model(&models.Favorite{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
