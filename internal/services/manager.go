package services

import (
	"context"
	"log/slog"

	"github.com/bochamaakram/knowway/internal/cache"
	"github.com/bochamaakram/knowway/internal/config"
	"github.com/bochamaakram/knowway/internal/events"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
	"github.com/bochamaakram/knowway/internal/utils"
)

// ===== SERVICE INTERFACES =====

type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	GetMe(ctx context.Context, userID uint) (*UserResponse, error)
	ParseToken(token string) (uint, error)
}

type CourseService interface {
	List(ctx context.Context, filters repositories.CourseFilters, userID *uint) ([]*models.Course, int64, error)
	Get(ctx context.Context, id uint) (*models.Course, error)
	Create(ctx context.Context, req *CourseRequest, userID uint) (*models.Course, error)
	Update(ctx context.Context, id uint, req *CourseRequest, userID uint) (*models.Course, error)
	Delete(ctx context.Context, id uint, userID uint) error

	AddFavorite(ctx context.Context, userID, courseID uint) error
	RemoveFavorite(ctx context.Context, userID, courseID uint) error
	ListFavorites(ctx context.Context, userID uint) ([]*models.Favorite, error)

	ListSearchLogs(ctx context.Context, userID uint, page, limit int) ([]*models.SearchLog, int64, error)
}

type LessonService interface {
	ListByCourse(ctx context.Context, courseID uint) ([]models.LessonRef, error)
	GetDetail(ctx context.Context, lessonID uint, userID *uint) (*LessonDetailResponse, error)
	Create(ctx context.Context, req *CreateLessonRequest, userID uint) (*models.Lesson, error)
	Update(ctx context.Context, lessonID uint, req *UpdateLessonRequest, userID uint) (*models.Lesson, error)
	Delete(ctx context.Context, lessonID uint, userID uint) error
}

type EnrollmentService interface {
	Enroll(ctx context.Context, userID, courseID uint) (*models.Enrollment, error)
	IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error)
	ListEnrollments(ctx context.Context, userID uint) ([]*models.Enrollment, error)
}

type ProgressService interface {
	GetCourseProgress(ctx context.Context, userID, courseID uint) (*models.CourseProgress, error)
	MarkComplete(ctx context.Context, userID, lessonID uint) (int, error)
	MarkIncomplete(ctx context.Context, userID, lessonID uint) (int, error)

	// Recompute recounts completion for (user, course) and persists the
	// percentage onto the enrollment row. It is the sole writer of that
	// field.
	Recompute(ctx context.Context, userID, courseID uint) (int, error)
}

type PointsService interface {
	Balance(ctx context.Context, userID uint) (int, error)
	Credit(ctx context.Context, userID uint, amount int, reason string) (int, error)
	History(ctx context.Context, userID uint, page, limit int) ([]*models.PointsTransaction, int64, error)
}

type QuizService interface {
	GetForCourse(ctx context.Context, courseID uint) (*models.Quiz, error)
	Save(ctx context.Context, courseID uint, req *SaveQuizRequest, userID uint) (*models.Quiz, error)
	Submit(ctx context.Context, courseID, userID uint, req *SubmitQuizRequest) (*models.QuizResult, error)
	ImportQuestions(ctx context.Context, courseID uint, userID uint, data []byte) (*models.QuizImportSummary, error)
	ExportQuestions(ctx context.Context, courseID uint, userID uint) ([]byte, error)
}

type ChatService interface {
	GetMessages(ctx context.Context, courseID, userID uint) ([]models.ChatMessageView, error)
	SendMessage(ctx context.Context, courseID, userID uint, text string) (*models.ChatMessageView, error)
}

type AIChatService interface {
	Completion(ctx context.Context, messages []AIChatMessage) (string, error)
}

// ServiceManager wires every service over one repository, cache, and
// event publisher.
type ServiceManager interface {
	Auth() AuthService
	Course() CourseService
	Lesson() LessonService
	Enrollment() EnrollmentService
	Progress() ProgressService
	Points() PointsService
	Quiz() QuizService
	Chat() ChatService
	AIChat() AIChatService
}

type serviceManager struct {
	auth       AuthService
	course     CourseService
	lesson     LessonService
	enrollment EnrollmentService
	progress   ProgressService
	points     PointsService
	quiz       QuizService
	chat       ChatService
	aiChat     AIChatService
}

func NewServiceManager(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
	cfg *config.Config,
) ServiceManager {
	progress := NewProgressService(repo, cacheService, publisher, logger)
	points := NewPointsService(repo, logger)

	return &serviceManager{
		auth:       NewAuthService(repo, logger, validator, cfg),
		course:     NewCourseService(repo, cacheService, logger, validator),
		lesson:     NewLessonService(repo, cacheService, logger, validator),
		enrollment: NewEnrollmentService(repo, publisher, logger),
		progress:   progress,
		points:     points,
		quiz:       NewQuizService(repo, publisher, logger, validator),
		chat:       NewChatService(repo, logger),
		aiChat:     NewAIChatService(cfg, logger),
	}
}

func (m *serviceManager) Auth() AuthService             { return m.auth }
func (m *serviceManager) Course() CourseService         { return m.course }
func (m *serviceManager) Lesson() LessonService         { return m.lesson }
func (m *serviceManager) Enrollment() EnrollmentService { return m.enrollment }
func (m *serviceManager) Progress() ProgressService     { return m.progress }
func (m *serviceManager) Points() PointsService         { return m.points }
func (m *serviceManager) Quiz() QuizService             { return m.quiz }
func (m *serviceManager) Chat() ChatService             { return m.chat }
func (m *serviceManager) AIChat() AIChatService         { return m.aiChat }
