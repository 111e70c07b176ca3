package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/bochamaakram/knowway/internal/models"
)

// Repository aggregates all entity repositories. WithTx runs fn against a
// repository bound to a single database transaction; returning an error
// rolls everything back.
type Repository interface {
	User() UserRepository
	Course() CourseRepository
	Lesson() LessonRepository
	Enrollment() EnrollmentRepository
	Progress() ProgressRepository
	Points() PointsRepository
	Favorite() FavoriteRepository
	Quiz() QuizRepository
	Chat() ChatRepository
	SearchLog() SearchLogRepository

	WithTx(ctx context.Context, fn func(Repository) error) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePoints(ctx context.Context, id uint, delta int) error
}

type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetByIDWithAuthor(ctx context.Context, id uint) (*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters CourseFilters) ([]*models.Course, int64, error)
}

type LessonRepository interface {
	Create(ctx context.Context, lesson *models.Lesson) error
	GetByID(ctx context.Context, id uint) (*models.Lesson, error)
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id uint) error

	// GetRefsByCourse returns the course's lessons as navigation refs,
	// ordered by order_index ascending.
	GetRefsByCourse(ctx context.Context, courseID uint) ([]models.LessonRef, error)
	CountByCourse(ctx context.Context, courseID uint) (int, error)
	MaxOrderIndex(ctx context.Context, courseID uint) (int, error)
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	GetByUserAndCourse(ctx context.Context, userID, courseID uint) (*models.Enrollment, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Enrollment, error)

	// UpdateProgress overwrites the cached percentage on the enrollment
	// row. The progress service is the only caller.
	UpdateProgress(ctx context.Context, userID, courseID uint, percentage int) error
}

type ProgressRepository interface {
	// Upsert creates the (user, lesson) row or updates its completion
	// state if it already exists.
	Upsert(ctx context.Context, progress *models.LessonProgress) error

	// SetCompleted updates an existing row only; returns the number of
	// rows affected so callers can treat a missing row as a no-op.
	SetCompleted(ctx context.Context, userID, lessonID uint, completed bool, completedAt *time.Time) (int64, error)

	CountCompleted(ctx context.Context, userID, courseID uint) (int, error)
	CompletedLessonIDs(ctx context.Context, userID, courseID uint) ([]uint, error)
}

type PointsRepository interface {
	CreateTransaction(ctx context.Context, tx *models.PointsTransaction) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.PointsTransaction, int64, error)
}

type FavoriteRepository interface {
	Add(ctx context.Context, favorite *models.Favorite) error
	Remove(ctx context.Context, userID, courseID uint) error
	ListByUser(ctx context.Context, userID uint) ([]*models.Favorite, error)
	Exists(ctx context.Context, userID, courseID uint) (bool, error)
}

type QuizRepository interface {
	GetByCourse(ctx context.Context, courseID uint) (*models.Quiz, error)
	Upsert(ctx context.Context, quiz *models.Quiz) error
	ReplaceQuestions(ctx context.Context, quizID uint, questions []models.QuizQuestion) error
	CreateQuestions(ctx context.Context, questions []models.QuizQuestion) error
}

type ChatRepository interface {
	Create(ctx context.Context, message *models.CourseMessage) error
	ListByCourse(ctx context.Context, courseID uint, limit int) ([]*models.CourseMessage, error)
}

type SearchLogRepository interface {
	Create(ctx context.Context, log *models.SearchLog) error
	List(ctx context.Context, limit, offset int) ([]*models.SearchLog, int64, error)
}

// ===== SHARED FILTER STRUCTS =====

type CourseFilters struct {
	Category  *string             `json:"category"`
	Level     *models.CourseLevel `json:"level"`
	IsFree    *bool               `json:"is_free"`
	AuthorID  *uint               `json:"author_id"`
	Query     string              `json:"query"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
	SortBy    string              `json:"sort_by"`    // "created_at", "title", "price"
	SortOrder string              `json:"sort_order"` // "asc", "desc"
}

// IsNotFoundError reports whether err is the storage layer's record-not-found
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKeyError reports a uniqueness-constraint violation
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
