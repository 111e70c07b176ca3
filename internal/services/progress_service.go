package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/bochamaakram/knowway/internal/cache"
	"github.com/bochamaakram/knowway/internal/events"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
)

// progressCacheTTL bounds how long a cached aggregate can outlive the
// underlying rows. Every toggle invalidates eagerly; the TTL only covers
// writes that bypass this service.
const progressCacheTTL = 5 * time.Minute

type progressService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewProgressService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
) ProgressService {
	return &progressService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
	}
}

// roundPercentage applies the one rounding rule used everywhere a
// percentage is computed or persisted: round-half-up.
func roundPercentage(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

func (s *progressService) GetCourseProgress(ctx context.Context, userID, courseID uint) (*models.CourseProgress, error) {
	key := cache.CourseProgressKey(userID, courseID)
	var cached models.CourseProgress
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	}

	progress, err := s.loadProgress(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, progress, progressCacheTTL); err != nil {
		s.logger.Warn("Failed to cache course progress", "user_id", userID, "course_id", courseID, "error", err)
	}

	return progress, nil
}

func (s *progressService) loadProgress(ctx context.Context, userID, courseID uint) (*models.CourseProgress, error) {
	total, err := s.repo.Lesson().CountByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count lessons: %w", err)
	}

	done, err := s.repo.Progress().CountCompleted(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	ids, err := s.repo.Progress().CompletedLessonIDs(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed lesson ids: %w", err)
	}
	if ids == nil {
		ids = []uint{}
	}

	return &models.CourseProgress{
		Total:              total,
		Completed:          done,
		Percentage:         roundPercentage(done, total),
		CompletedLessonIDs: ids,
	}, nil
}

func (s *progressService) MarkComplete(ctx context.Context, userID, lessonID uint) (int, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrLessonNotFound
		}
		return 0, fmt.Errorf("failed to get lesson: %w", err)
	}

	// Completion cannot be recorded for content the user cannot reach.
	if _, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, lesson.CourseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrNotEnrolled
		}
		return 0, fmt.Errorf("failed to check enrollment: %w", err)
	}

	now := time.Now()
	progress := &models.LessonProgress{
		UserID:      userID,
		LessonID:    lessonID,
		CourseID:    lesson.CourseID,
		Completed:   true,
		CompletedAt: &now,
	}
	if err := s.repo.Progress().Upsert(ctx, progress); err != nil {
		return 0, fmt.Errorf("failed to record completion: %w", err)
	}

	percentage, err := s.Recompute(ctx, userID, lesson.CourseID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Lesson marked complete",
		"user_id", userID,
		"lesson_id", lessonID,
		"course_id", lesson.CourseID,
		"progress", percentage)

	s.publishCompletionEvents(ctx, userID, lessonID, lesson.CourseID, percentage)

	return percentage, nil
}

func (s *progressService) MarkIncomplete(ctx context.Context, userID, lessonID uint) (int, error) {
	lesson, err := s.repo.Lesson().GetByID(ctx, lessonID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrLessonNotFound
		}
		return 0, fmt.Errorf("failed to get lesson: %w", err)
	}

	// Absence of a progress row already means "incomplete", so zero
	// affected rows still succeeds.
	affected, err := s.repo.Progress().SetCompleted(ctx, userID, lessonID, false, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to clear completion: %w", err)
	}

	// Orphaned progress rows can outlive an enrollment. With no enrollment
	// row there is no persisted percentage to update: nothing toggled is a
	// pure no-op, a cleared row still gets a recount for the response.
	if _, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, lesson.CourseID); err != nil {
		if !repositories.IsNotFoundError(err) {
			return 0, fmt.Errorf("failed to check enrollment: %w", err)
		}
		if affected == 0 {
			return 0, nil
		}
		return s.recountWithoutEnrollment(ctx, userID, lesson.CourseID)
	}

	percentage, err := s.Recompute(ctx, userID, lesson.CourseID)
	if err != nil {
		return 0, err
	}

	s.logger.Info("Lesson marked incomplete",
		"user_id", userID,
		"lesson_id", lessonID,
		"course_id", lesson.CourseID,
		"progress", percentage)

	return percentage, nil
}

// Recompute is always a full recount, never an increment, so the persisted
// percentage stays consistent with the lesson_progress table no matter how
// concurrent toggles interleave.
func (s *progressService) Recompute(ctx context.Context, userID, courseID uint) (int, error) {
	total, err := s.repo.Lesson().CountByCourse(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}

	done, err := s.repo.Progress().CountCompleted(ctx, userID, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	percentage := roundPercentage(done, total)

	if err := s.repo.Enrollment().UpdateProgress(ctx, userID, courseID, percentage); err != nil {
		if repositories.IsNotFoundError(err) {
			// The caller's enrollment precondition was bypassed.
			s.logger.Error("Recompute called without enrollment row",
				"user_id", userID, "course_id", courseID)
			return 0, ErrInternalError
		}
		return 0, fmt.Errorf("failed to persist progress: %w", err)
	}

	if err := s.cache.Delete(ctx, cache.CourseProgressKey(userID, courseID)); err != nil {
		s.logger.Warn("Failed to invalidate progress cache", "user_id", userID, "course_id", courseID, "error", err)
	}

	return percentage, nil
}

// recountWithoutEnrollment recounts for a user whose enrollment row is gone
// while completion rows remain. There is no enrollment percentage to
// persist; only the snapshot cache is refreshed.
func (s *progressService) recountWithoutEnrollment(ctx context.Context, userID, courseID uint) (int, error) {
	total, err := s.repo.Lesson().CountByCourse(ctx, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count lessons: %w", err)
	}

	done, err := s.repo.Progress().CountCompleted(ctx, userID, courseID)
	if err != nil {
		return 0, fmt.Errorf("failed to count completed lessons: %w", err)
	}

	if err := s.cache.Delete(ctx, cache.CourseProgressKey(userID, courseID)); err != nil {
		s.logger.Warn("Failed to invalidate progress cache", "user_id", userID, "course_id", courseID, "error", err)
	}

	return roundPercentage(done, total), nil
}

func (s *progressService) publishCompletionEvents(ctx context.Context, userID, lessonID, courseID uint, percentage int) {
	now := time.Now()

	event := events.NewLearningEvent(events.EventLessonCompleted, events.LessonCompletedEvent{
		UserID:     userID,
		LessonID:   lessonID,
		CourseID:   courseID,
		Percentage: percentage,
		At:         now,
	})
	if err := s.publisher.PublishLearningEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish lesson completed event", "error", err)
	}

	if percentage == 100 {
		course, err := s.repo.Course().GetByID(ctx, courseID)
		title := ""
		if err == nil {
			title = course.Title
		}
		event := events.NewLearningEvent(events.EventCourseCompleted, events.CourseCompletedEvent{
			UserID:      userID,
			CourseID:    courseID,
			CourseTitle: title,
			CompletedAt: now,
		})
		if err := s.publisher.PublishLearningEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish course completed event", "error", err)
		}
	}
}
