package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
)

type LessonPostgreSQL struct {
	db *gorm.DB
}

func NewLessonPostgreSQL(db *gorm.DB) repositories.LessonRepository {
	return &LessonPostgreSQL{db: db}
}

func (l LessonPostgreSQL) Create(ctx context.Context, lesson *models.Lesson) error {
	return l.db.WithContext(ctx).Create(lesson).Error
}

func (l LessonPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Lesson, error) {
	var lesson models.Lesson
	if err := l.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return nil, err
	}
	return &lesson, nil
}

func (l LessonPostgreSQL) Update(ctx context.Context, lesson *models.Lesson) error {
	return l.db.WithContext(ctx).Save(lesson).Error
}

func (l LessonPostgreSQL) Delete(ctx context.Context, id uint) error {
	return l.db.WithContext(ctx).Delete(&models.Lesson{}, id).Error
}

func (l LessonPostgreSQL) GetRefsByCourse(ctx context.Context, courseID uint) ([]models.LessonRef, error) {
	var refs []models.LessonRef
	if err := l.db.WithContext(ctx).
		Model(&models.Lesson{}).
		Select("id", "title", "order_index").
		Where("course_id = ?", courseID).
		Order("order_index ASC").
		Find(&refs).Error; err != nil {
		return nil, err
	}
	return refs, nil
}

func (l LessonPostgreSQL) CountByCourse(ctx context.Context, courseID uint) (int, error) {
	var count int64
	if err := l.db.WithContext(ctx).
		Model(&models.Lesson{}).
		Where("course_id = ?", courseID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (l LessonPostgreSQL) MaxOrderIndex(ctx context.Context, courseID uint) (int, error) {
	var max *int
	if err := l.db.WithContext(ctx).
		Model(&models.Lesson{}).
		Select("MAX(order_index)").
		Where("course_id = ?", courseID).
		Scan(&max).Error; err != nil {
		return 0, err
	}
	if max == nil {
		return 0, nil
	}
	return *max, nil
}
