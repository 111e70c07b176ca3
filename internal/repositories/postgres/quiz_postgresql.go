package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
)

type QuizPostgreSQL struct {
	db *gorm.DB
}

func NewQuizPostgreSQL(db *gorm.DB) repositories.QuizRepository {
	return &QuizPostgreSQL{db: db}
}

func (q QuizPostgreSQL) GetByCourse(ctx context.Context, courseID uint) (*models.Quiz, error) {
	var quiz models.Quiz
	if err := q.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.order_index ASC")
		}).
		First(&quiz).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

// Upsert keys on the one-quiz-per-course constraint.
func (q QuizPostgreSQL) Upsert(ctx context.Context, quiz *models.Quiz) error {
	return q.db.WithContext(ctx).
		Omit("Questions").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "passing_score", "updated_at"}),
		}).
		Create(quiz).Error
}

func (q QuizPostgreSQL) ReplaceQuestions(ctx context.Context, quizID uint, questions []models.QuizQuestion) error {
	return q.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().
			Where("quiz_id = ?", quizID).
			Delete(&models.QuizQuestion{}).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		for i := range questions {
			questions[i].QuizID = quizID
		}
		return tx.Create(&questions).Error
	})
}

func (q QuizPostgreSQL) CreateQuestions(ctx context.Context, questions []models.QuizQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return q.db.WithContext(ctx).Create(&questions).Error
}

type ChatPostgreSQL struct {
	db *gorm.DB
}

func NewChatPostgreSQL(db *gorm.DB) repositories.ChatRepository {
	return &ChatPostgreSQL{db: db}
}

func (c ChatPostgreSQL) Create(ctx context.Context, message *models.CourseMessage) error {
	return c.db.WithContext(ctx).Create(message).Error
}

func (c ChatPostgreSQL) ListByCourse(ctx context.Context, courseID uint, limit int) ([]*models.CourseMessage, error) {
	var messages []*models.CourseMessage
	if err := c.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Preload("User").
		Order("created_at ASC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

type SearchLogPostgreSQL struct {
	db *gorm.DB
}

func NewSearchLogPostgreSQL(db *gorm.DB) repositories.SearchLogRepository {
	return &SearchLogPostgreSQL{db: db}
}

func (s SearchLogPostgreSQL) Create(ctx context.Context, log *models.SearchLog) error {
	return s.db.WithContext(ctx).Create(log).Error
}

func (s SearchLogPostgreSQL) List(ctx context.Context, limit, offset int) ([]*models.SearchLog, int64, error) {
	var logs []*models.SearchLog
	var total int64

	if err := s.db.WithContext(ctx).Model(&models.SearchLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := s.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
