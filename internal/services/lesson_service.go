package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bochamaakram/knowway/internal/cache"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
	"github.com/bochamaakram/knowway/internal/utils"
)

const lessonListCacheTTL = 10 * time.Minute

type CreateLessonRequest struct {
	CourseID uint    `json:"course_id" validate:"required"`
	Title    string  `json:"title" validate:"required,min=1,max=200"`
	Content  string  `json:"content"`
	VideoURL *string `json:"video_url" validate:"omitempty,max=500"`
}

type UpdateLessonRequest struct {
	Title      *string `json:"title" validate:"omitempty,min=1,max=200"`
	Content    *string `json:"content"`
	VideoURL   *string `json:"video_url" validate:"omitempty,max=500"`
	OrderIndex *int    `json:"order_index" validate:"omitempty,min=1"`
}

// LessonDetailResponse carries the lesson plus navigation. Content and
// VideoURL are redacted when Allowed is false; navigation is always
// populated so locked lessons stay visible.
type LessonDetailResponse struct {
	Lesson       *models.Lesson    `json:"lesson"`
	CourseTitle  string            `json:"course_title"`
	PrevLesson   *models.LessonRef `json:"prevLesson"`
	NextLesson   *models.LessonRef `json:"nextLesson"`
	TotalLessons int               `json:"totalLessons"`
	CurrentIndex int               `json:"currentIndex"` // 1-based
	Allowed      bool              `json:"allowed"`
	AccessReason AccessReason      `json:"access_reason,omitempty"`
}

type lessonService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *slog.Logger
	validator *utils.Validator
}

func NewLessonService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	logger *slog.Logger,
	validator *utils.Validator,
) LessonService {
	return &lessonService{
		repo:      repo,
		cache:     cacheService,
		logger:    logger,
		validator: validator,
	}
}

func (s *lessonService) ListByCourse(ctx context.Context, courseID uint) ([]models.LessonRef, error) {
	key := cache.CourseLessonsKey(courseID)
	var cached []models.LessonRef
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return cached, nil
	}

	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	refs, err := s.repo.Lesson().GetRefsByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}

	if err := s.cache.Set(ctx, key, refs, lessonListCacheTTL); err != nil {
		s.logger.Warn("Failed to cache lesson list", "course_id", courseID, "error", err)
	}

	return refs, nil
}

func (s *lessonService) GetDetail(ctx context.Context, lessonID uint, userID *uint) (*LessonDetailResponse, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrLessonNotFound
		}
		return nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	course, err := s.repo.Course().GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	var user *models.User
	enrolled := false
	if userID != nil {
		user, err = s.repo.User().GetByID(ctx, *userID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		if user != nil {
			if _, err := s.repo.Enrollment().GetByUserAndCourse(ctx, *userID, course.ID); err == nil {
				enrolled = true
			} else if !repositories.IsNotFoundError(err) {
				return nil, fmt.Errorf("failed to check enrollment: %w", err)
			}
		}
	}

	decision := CanAccessLesson(user, course, enrolled)

	refs, err := s.repo.Lesson().GetRefsByCourse(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list lessons: %w", err)
	}

	resp := &LessonDetailResponse{
		Lesson:       lesson,
		CourseTitle:  course.Title,
		TotalLessons: len(refs),
		Allowed:      decision.Allowed,
	}
	if !decision.Allowed {
		resp.AccessReason = decision.Reason
		// Redact content, keep the shell for the lesson list.
		redacted := *lesson
		redacted.Content = ""
		redacted.VideoURL = nil
		resp.Lesson = &redacted
	}

	for i, ref := range refs {
		if ref.ID != lesson.ID {
			continue
		}
		resp.CurrentIndex = i + 1
		if i > 0 {
			prev := refs[i-1]
			resp.PrevLesson = &prev
		}
		if i < len(refs)-1 {
			next := refs[i+1]
			resp.NextLesson = &next
		}
		break
	}

	return resp, nil
}

func (s *lessonService) Create(ctx context.Context, req *CreateLessonRequest, userID uint) (*models.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.repo.Course().GetByID(ctx, req.CourseID)
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
		return nil, NewPermissionError(userID, course.ID, "course", "add lesson", "not the course author")
	}

	maxOrder, err := s.repo.Lesson().MaxOrderIndex(ctx, req.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get max order index: %w", err)
	}

	lesson := &models.Lesson{
		CourseID:   req.CourseID,
		Title:      req.Title,
		Content:    req.Content,
		VideoURL:   req.VideoURL,
		OrderIndex: maxOrder + 1,
	}
	if err := s.repo.Lesson().Create(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to create lesson: %w", err)
	}

	s.invalidateLessonList(ctx, req.CourseID)
	s.logger.Info("Lesson created", "lesson_id", lesson.ID, "course_id", req.CourseID, "order_index", lesson.OrderIndex)

	return lesson, nil
}

func (s *lessonService) Update(ctx context.Context, lessonID uint, req *UpdateLessonRequest, userID uint) (*models.Lesson, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	lesson, course, err := s.getLessonForManage(ctx, lessonID, userID, "update lesson")
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		lesson.Title = *req.Title
	}
	if req.Content != nil {
		lesson.Content = *req.Content
	}
	if req.VideoURL != nil {
		lesson.VideoURL = req.VideoURL
	}
	if req.OrderIndex != nil {
		lesson.OrderIndex = *req.OrderIndex
	}

	if err := s.repo.Lesson().Update(ctx, lesson); err != nil {
		return nil, fmt.Errorf("failed to update lesson: %w", err)
	}

	s.invalidateLessonList(ctx, course.ID)
	return lesson, nil
}

func (s *lessonService) Delete(ctx context.Context, lessonID uint, userID uint) error {
	lesson, course, err := s.getLessonForManage(ctx, lessonID, userID, "delete lesson")
	if err != nil {
		return err
	}

	if err := s.repo.Lesson().Delete(ctx, lesson.ID); err != nil {
		return fmt.Errorf("failed to delete lesson: %w", err)
	}

	s.invalidateLessonList(ctx, course.ID)
	s.logger.Info("Lesson deleted", "lesson_id", lessonID, "course_id", course.ID)
	return nil
}

func (s *lessonService) getLessonForManage(ctx context.Context, lessonID, userID uint, action string) (*models.Lesson, *models.Course, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, nil, ErrLessonNotFound
		}
		return nil, nil, fmt.Errorf("failed to get lesson: %w", err)
	}

	course, err := s.repo.Course().GetByID(ctx, lesson.CourseID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get course: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !CanManageCourse(user, course) {
		return nil, nil, NewPermissionError(userID, lesson.ID, "lesson", action, "not the course author")
	}

	return lesson, course, nil
}

func (s *lessonService) invalidateLessonList(ctx context.Context, courseID uint) {
	if err := s.cache.Delete(ctx, cache.CourseLessonsKey(courseID)); err != nil {
		s.logger.Warn("Failed to invalidate lesson list cache", "course_id", courseID, "error", err)
	}
	// Lesson totals feed every enrolled user's percentage, so their cached
	// snapshots are stale the moment the lesson set changes.
	if err := s.cache.DeletePattern(ctx, cache.CourseProgressPattern(courseID)); err != nil {
		s.logger.Warn("Failed to invalidate progress snapshots", "course_id", courseID, "error", err)
	}
}
