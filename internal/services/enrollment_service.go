package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bochamaakram/knowway/internal/events"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
)

type enrollmentService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewEnrollmentService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger *slog.Logger,
) EnrollmentService {
	return &enrollmentService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

// Enroll grants a user access to a course. Re-enrolling is idempotent:
// the existing record is returned untouched. Paid courses debit the
// user's point balance in the same transaction that creates the
// enrollment row, so a failed charge leaves no partial state.
func (s *enrollmentService) Enroll(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	if existing, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID); err == nil {
		return existing, nil
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	cost := 0
	if !course.IsFree {
		cost = course.Price
	}

	enrollment := &models.Enrollment{
		UserID:      userID,
		CourseID:    courseID,
		PointsSpent: cost,
	}

	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		if cost > 0 {
			user, err := tx.User().GetByID(ctx, userID)
			if err != nil {
				if repositories.IsNotFoundError(err) {
					return ErrUserNotFound
				}
				return fmt.Errorf("failed to get user: %w", err)
			}
			if user.Points < cost {
				return ErrInsufficientPoints
			}
			if err := tx.User().UpdatePoints(ctx, userID, -cost); err != nil {
				return fmt.Errorf("failed to debit points: %w", err)
			}
			if err := tx.Points().CreateTransaction(ctx, &models.PointsTransaction{
				UserID:   userID,
				Type:     models.PointsDebit,
				Amount:   cost,
				Reason:   "course enrollment",
				CourseID: &courseID,
			}); err != nil {
				return fmt.Errorf("failed to record points transaction: %w", err)
			}
		}

		if err := tx.Enrollment().Create(ctx, enrollment); err != nil {
			// A concurrent enroll for the same pair loses the race on
			// the uniqueness constraint; surface it as idempotent below.
			if repositories.IsDuplicateKeyError(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to create enrollment: %w", err)
		}
		return nil
	})
	if err != nil {
		if err == ErrConflict {
			return s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID)
		}
		return nil, err
	}

	s.logger.Info("User enrolled",
		"user_id", userID,
		"course_id", courseID,
		"points_spent", cost)

	event := events.NewLearningEvent(events.EventEnrollmentCreated, events.EnrollmentCreatedEvent{
		EnrollmentID: enrollment.ID,
		UserID:       userID,
		CourseID:     courseID,
		CourseTitle:  course.Title,
		PointsSpent:  cost,
		EnrolledAt:   time.Now(),
	})
	if err := s.publisher.PublishLearningEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish enrollment event", "error", err)
	}

	return enrollment, nil
}

func (s *enrollmentService) IsEnrolled(ctx context.Context, userID, courseID uint) (bool, error) {
	_, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check enrollment: %w", err)
	}
	return true, nil
}

func (s *enrollmentService) ListEnrollments(ctx context.Context, userID uint) ([]*models.Enrollment, error) {
	enrollments, err := s.repo.Enrollment().ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}
