package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bochamaakram/knowway/internal/cache"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
	"github.com/bochamaakram/knowway/internal/utils"
)

type CourseRequest struct {
	Title       string             `json:"title" validate:"required,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=2000"`
	Category    string             `json:"category" validate:"omitempty,max=50"`
	Level       models.CourseLevel `json:"level" validate:"omitempty,course_level"`
	Duration    int                `json:"duration" validate:"min=0,max=1000"`
	ImageURL    *string            `json:"image_url" validate:"omitempty,max=500"`
	IsFree      bool               `json:"is_free"`
	Price       int                `json:"price" validate:"min=0"`
}

type courseService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewCourseService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	logger *slog.Logger,
	validator *utils.Validator,
) CourseService {
	return &courseService{
		repo:      repo,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
	}
}

// List returns the catalog page for filters. Non-empty search queries are
// logged for the admin panel; logging failures never fail the search.
func (s *courseService) List(ctx context.Context, filters repositories.CourseFilters, userID *uint) ([]*models.Course, int64, error) {
	courses, total, err := s.repo.Course().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}

	for _, course := range courses {
		count, err := s.repo.Lesson().CountByCourse(ctx, course.ID)
		if err == nil {
			course.LessonCount = count
		}
	}

	if filters.Query != "" {
		log := &models.SearchLog{
			Query:   filters.Query,
			UserID:  userID,
			Results: int(total),
		}
		if err := s.repo.SearchLog().Create(ctx, log); err != nil {
			s.logger.Warn("Failed to record search log", "query", filters.Query, "error", err)
		}
	}

	return courses, total, nil
}

func (s *courseService) Get(ctx context.Context, id uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByIDWithAuthor(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	count, err := s.repo.Lesson().CountByCourse(ctx, id)
	if err == nil {
		course.LessonCount = count
	}

	return course, nil
}

func (s *courseService) Create(ctx context.Context, req *CourseRequest, userID uint) (*models.Course, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if role := user.EffectiveRole(); role != models.RoleTeacher && role != models.RoleSuperAdmin {
		return nil, NewPermissionError(userID, 0, "course", "create", "requires teacher role")
	}

	level := req.Level
	if level == "" {
		level = models.LevelBeginner
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Level:       level,
		Duration:    req.Duration,
		ImageURL:    req.ImageURL,
		IsFree:      req.IsFree,
		Price:       req.Price,
		UserID:      userID,
	}
	if err := s.repo.Course().Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("Course created", "course_id", course.ID, "user_id", userID)
	return course, nil
}

func (s *courseService) Update(ctx context.Context, id uint, req *CourseRequest, userID uint) (*models.Course, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.getCourseForManage(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}

	course.Title = req.Title
	course.Description = req.Description
	course.Category = req.Category
	if req.Level != "" {
		course.Level = req.Level
	}
	course.Duration = req.Duration
	course.ImageURL = req.ImageURL
	course.IsFree = req.IsFree
	course.Price = req.Price

	if err := s.repo.Course().Update(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to update course: %w", err)
	}

	return course, nil
}

func (s *courseService) Delete(ctx context.Context, id uint, userID uint) error {
	course, err := s.getCourseForManage(ctx, id, userID, "delete")
	if err != nil {
		return err
	}

	if err := s.repo.Course().Delete(ctx, course.ID); err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	if err := s.cache.Delete(ctx, cache.CourseLessonsKey(course.ID)); err != nil {
		s.logger.Warn("Failed to invalidate lesson list cache", "course_id", course.ID, "error", err)
	}
	if err := s.cache.DeletePattern(ctx, cache.CourseProgressPattern(course.ID)); err != nil {
		s.logger.Warn("Failed to invalidate progress snapshots", "course_id", course.ID, "error", err)
	}

	s.logger.Info("Course deleted", "course_id", id, "user_id", userID)
	return nil
}

func (s *courseService) getCourseForManage(ctx context.Context, id, userID uint, action string) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !CanManageCourse(user, course) {
		return nil, NewPermissionError(userID, id, "course", action, "not the course author")
	}

	return course, nil
}

// ===== FAVORITES =====

func (s *courseService) AddFavorite(ctx context.Context, userID, courseID uint) error {
	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}

	exists, err := s.repo.Favorite().Exists(ctx, userID, courseID)
	if err != nil {
		return fmt.Errorf("failed to check favorite: %w", err)
	}
	if exists {
		return nil
	}

	err = s.repo.Favorite().Add(ctx, &models.Favorite{UserID: userID, CourseID: courseID})
	if err != nil && !repositories.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (s *courseService) RemoveFavorite(ctx context.Context, userID, courseID uint) error {
	if err := s.repo.Favorite().Remove(ctx, userID, courseID); err != nil {
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (s *courseService) ListFavorites(ctx context.Context, userID uint) ([]*models.Favorite, error) {
	favorites, err := s.repo.Favorite().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return favorites, nil
}

// ===== SEARCH LOGS =====

// ListSearchLogs is restricted to super admins.
func (s *courseService) ListSearchLogs(ctx context.Context, userID uint, page, limit int) ([]*models.SearchLog, int64, error) {
	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsSuperAdmin() {
		return nil, 0, NewPermissionError(userID, 0, "search_logs", "list", "requires super admin role")
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	logs, total, err := s.repo.SearchLog().List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list search logs: %w", err)
	}
	return logs, total, nil
}
