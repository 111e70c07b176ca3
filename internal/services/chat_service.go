package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
)

const chatHistoryLimit = 100

type chatService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewChatService(repo repositories.Repository, logger *slog.Logger) ChatService {
	return &chatService{repo: repo, logger: logger}
}

func (s *chatService) GetMessages(ctx context.Context, courseID, userID uint) ([]models.ChatMessageView, error) {
	if err := s.requireEnrollment(ctx, courseID, userID); err != nil {
		return nil, err
	}

	messages, err := s.repo.Chat().ListByCourse(ctx, courseID, chatHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	views := make([]models.ChatMessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, toMessageView(msg, userID))
	}
	return views, nil
}

func (s *chatService) SendMessage(ctx context.Context, courseID, userID uint, text string) (*models.ChatMessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageEmpty
	}
	if len(text) > 1000 {
		return nil, ErrMessageTooLong
	}

	if err := s.requireEnrollment(ctx, courseID, userID); err != nil {
		return nil, err
	}

	message := &models.CourseMessage{
		CourseID: courseID,
		UserID:   userID,
		Message:  text,
	}
	if err := s.repo.Chat().Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	// Reload the author for the view; the create does not preload it.
	user, err := s.repo.User().GetByID(ctx, userID)
	if err == nil {
		message.User = *user
	}

	view := toMessageView(message, userID)
	return &view, nil
}

// requireEnrollment passes for the course author and super admins too, so a
// teacher can moderate their own course chat without buying the course.
func (s *chatService) requireEnrollment(ctx context.Context, courseID, userID uint) error {
	course, err := s.repo.Course().GetByID(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("failed to get course: %w", err)
	}

	user, err := s.repo.User().GetByID(ctx, userID)
	if err == nil && CanManageCourse(user, course) {
		return nil
	}

	if _, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrNotEnrolled
		}
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	return nil
}

func toMessageView(msg *models.CourseMessage, viewerID uint) models.ChatMessageView {
	return models.ChatMessageView{
		ID:        msg.ID,
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
		UserID:    msg.UserID,
		Username:  msg.User.Username,
		IsOwn:     msg.UserID == viewerID,
	}
}
