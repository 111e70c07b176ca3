package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/bochamaakram/knowway/internal/repositories"
)

// PostgresRepository is the gorm-backed implementation of
// repositories.Repository.
type PostgresRepository struct {
	db *gorm.DB

	user       repositories.UserRepository
	course     repositories.CourseRepository
	lesson     repositories.LessonRepository
	enrollment repositories.EnrollmentRepository
	progress   repositories.ProgressRepository
	points     repositories.PointsRepository
	favorite   repositories.FavoriteRepository
	quiz       repositories.QuizRepository
	chat       repositories.ChatRepository
	searchLog  repositories.SearchLogRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &PostgresRepository{
		db:         db,
		user:       NewUserPostgreSQL(db),
		course:     NewCoursePostgreSQL(db),
		lesson:     NewLessonPostgreSQL(db),
		enrollment: NewEnrollmentPostgreSQL(db),
		progress:   NewProgressPostgreSQL(db),
		points:     NewPointsPostgreSQL(db),
		favorite:   NewFavoritePostgreSQL(db),
		quiz:       NewQuizPostgreSQL(db),
		chat:       NewChatPostgreSQL(db),
		searchLog:  NewSearchLogPostgreSQL(db),
	}
}

func (r *PostgresRepository) User() repositories.UserRepository             { return r.user }
func (r *PostgresRepository) Course() repositories.CourseRepository         { return r.course }
func (r *PostgresRepository) Lesson() repositories.LessonRepository         { return r.lesson }
func (r *PostgresRepository) Enrollment() repositories.EnrollmentRepository { return r.enrollment }
func (r *PostgresRepository) Progress() repositories.ProgressRepository     { return r.progress }
func (r *PostgresRepository) Points() repositories.PointsRepository         { return r.points }
func (r *PostgresRepository) Favorite() repositories.FavoriteRepository     { return r.favorite }
func (r *PostgresRepository) Quiz() repositories.QuizRepository             { return r.quiz }
func (r *PostgresRepository) Chat() repositories.ChatRepository             { return r.chat }
func (r *PostgresRepository) SearchLog() repositories.SearchLogRepository   { return r.searchLog }

// WithTx runs fn against a repository bound to one transaction.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
