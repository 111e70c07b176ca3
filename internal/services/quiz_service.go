package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"

	"github.com/bochamaakram/knowway/internal/events"
	"github.com/bochamaakram/knowway/internal/models"
	"github.com/bochamaakram/knowway/internal/repositories"
	"github.com/bochamaakram/knowway/internal/utils"
)

type SaveQuizRequest struct {
	Title        string            `json:"title" validate:"required,min=1,max=200"`
	PassingScore int               `json:"passing_score" validate:"min=0,max=100"`
	Questions    []QuizQuestionReq `json:"questions" validate:"required,min=1,dive"`
}

type QuizQuestionReq struct {
	Question     string   `json:"question" validate:"required,min=1"`
	Options      []string `json:"options" validate:"required,min=2,max=6,dive,required"`
	CorrectIndex int      `json:"correct_index" validate:"min=0"`
}

type SubmitQuizRequest struct {
	// Answers[i] is the chosen option index for question i in order_index
	// order. -1 marks an unanswered question.
	Answers []int `json:"answers" validate:"required"`
}

type quizService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *utils.Validator
}

func NewQuizService(
	repo repositories.Repository,
	publisher events.EventPublisher,
	logger *slog.Logger,
	validator *utils.Validator,
) QuizService {
	return &quizService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: validator,
	}
}

// GetForCourse returns the course quiz with its questions. Correct answers
// are stripped by the json:"-" tag at serialization time, not here.
func (s *quizService) GetForCourse(ctx context.Context, courseID uint) (*models.Quiz, error) {
	if _, err := s.repo.Course().GetByID(ctx, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	quiz, err := s.repo.Quiz().GetByCourse(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// Save creates or replaces the course quiz wholesale. Only the course author
// or a super admin may call it.
func (s *quizService) Save(ctx context.Context, courseID uint, req *SaveQuizRequest, userID uint) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	course, err := s.getCourseForQuizManage(ctx, courseID, userID)
	if err != nil {
		return nil, err
	}

	questions := make([]models.QuizQuestion, 0, len(req.Questions))
	for i, q := range req.Questions {
		if q.CorrectIndex >= len(q.Options) {
			return nil, NewValidationError("correct_index",
				fmt.Sprintf("question %d: correct_index out of range", i+1), q.CorrectIndex)
		}
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to encode options: %w", err)
		}
		questions = append(questions, models.QuizQuestion{
			Question:     q.Question,
			Options:      datatypes.JSON(opts),
			CorrectIndex: q.CorrectIndex,
			OrderIndex:   i,
		})
	}

	quiz := &models.Quiz{
		CourseID:     course.ID,
		Title:        req.Title,
		PassingScore: req.PassingScore,
	}
	err = s.repo.WithTx(ctx, func(tx repositories.Repository) error {
		if err := tx.Quiz().Upsert(ctx, quiz); err != nil {
			return fmt.Errorf("failed to save quiz: %w", err)
		}
		return tx.Quiz().ReplaceQuestions(ctx, quiz.ID, questions)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz saved", "course_id", courseID, "quiz_id", quiz.ID, "questions", len(questions))
	return s.GetForCourse(ctx, courseID)
}

// Submit grades the answers against the stored correct indexes and records
// the attempt. Requires an active enrollment.
func (s *quizService) Submit(ctx context.Context, courseID, userID uint, req *SubmitQuizRequest) (*models.QuizResult, error) {
	quiz, err := s.GetForCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Enrollment().GetByUserAndCourse(ctx, userID, courseID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNotEnrolled
		}
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	if len(req.Answers) != len(quiz.Questions) {
		return nil, ErrQuizAnswerCount
	}

	correct := 0
	for i, question := range quiz.Questions {
		if req.Answers[i] == question.CorrectIndex {
			correct++
		}
	}

	score := roundPercentage(correct, len(quiz.Questions))
	result := &models.QuizResult{
		Score:   score,
		Correct: correct,
		Total:   len(quiz.Questions),
		Passed:  score >= quiz.PassingScore,
	}
	result.BestScore = score

	if result.Passed {
		event := events.NewLearningEvent(events.EventQuizPassed, events.QuizPassedEvent{
			UserID:   userID,
			CourseID: courseID,
			QuizID:   quiz.ID,
			Score:    score,
			PassedAt: time.Now(),
		})
		if err := s.publisher.PublishLearningEvent(ctx, event); err != nil {
			s.logger.Warn("Failed to publish quiz passed event", "quiz_id", quiz.ID, "error", err)
		}
	}

	s.logger.Info("Quiz submitted",
		"user_id", userID,
		"course_id", courseID,
		"score", score,
		"passed", result.Passed)

	return result, nil
}

func (s *quizService) getCourseForQuizManage(ctx context.Context, courseID, userID uint) (*models.Course, error) {
	course, err := s.repo.Course().GetByID(ctx, courseID)
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
		return nil, NewPermissionError(userID, courseID, "quiz", "manage", "not the course author")
	}
	return course, nil
}

// ===== IMPORT / EXPORT =====

var quizSheetHeaders = []string{
	"Question", "Option A", "Option B", "Option C", "Option D", "Correct Answer",
}

// ImportQuestions appends questions from an XLSX workbook to the course quiz.
// Expected columns: Question, Option A-D (at least two), Correct Answer as the
// option letter. Rows that fail validation are reported, not saved.
func (s *quizService) ImportQuestions(ctx context.Context, courseID uint, userID uint, data []byte) (*models.QuizImportSummary, error) {
	startTime := time.Now()

	if _, err := s.getCourseForQuizManage(ctx, courseID, userID); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByCourse(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, ErrQuizInvalidImport
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "workbook has no sheets", nil)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, NewValidationError("file", "workbook must have a header row and at least one data row", len(rows))
	}

	summary := &models.QuizImportSummary{TotalRows: len(rows) - 1}
	nextOrder := len(quiz.Questions)

	var questions []models.QuizQuestion
	for rowIndex, row := range rows[1:] {
		question, rowErr := s.parseImportRow(row, rowIndex+2)
		if rowErr != nil {
			summary.Errors = append(summary.Errors, *rowErr)
			summary.ErrorCount++
			continue
		}
		question.QuizID = quiz.ID
		question.OrderIndex = nextOrder
		nextOrder++
		questions = append(questions, *question)
		summary.SuccessCount++
	}

	if len(questions) > 0 {
		if err := s.repo.Quiz().CreateQuestions(ctx, questions); err != nil {
			return nil, fmt.Errorf("failed to save imported questions: %w", err)
		}
		for _, q := range questions {
			summary.CreatedQuestions = append(summary.CreatedQuestions, q.ID)
		}
	}

	summary.ProcessingTime = time.Since(startTime)
	s.logger.Info("Quiz import completed",
		"course_id", courseID,
		"total_rows", summary.TotalRows,
		"success_count", summary.SuccessCount,
		"error_count", summary.ErrorCount)

	return summary, nil
}

func (s *quizService) parseImportRow(row []string, rowNumber int) (*models.QuizQuestion, *models.ImportError) {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	text := get(0)
	if text == "" {
		return nil, &models.ImportError{Row: rowNumber, Message: "question text is required"}
	}

	var options []string
	for i := 1; i <= 4; i++ {
		if opt := get(i); opt != "" {
			options = append(options, opt)
		}
	}
	if len(options) < 2 {
		return nil, &models.ImportError{Row: rowNumber, Message: "at least two options are required"}
	}

	answer := strings.ToUpper(get(5))
	correctIndex := -1
	switch {
	case len(answer) == 1 && answer[0] >= 'A' && answer[0] <= 'D':
		correctIndex = int(answer[0] - 'A')
	default:
		// Accept a 1-based number as well
		if n, err := strconv.Atoi(answer); err == nil {
			correctIndex = n - 1
		}
	}
	if correctIndex < 0 || correctIndex >= len(options) {
		return nil, &models.ImportError{Row: rowNumber, Message: "correct answer must reference an existing option"}
	}

	opts, err := json.Marshal(options)
	if err != nil {
		return nil, &models.ImportError{Row: rowNumber, Message: "failed to encode options"}
	}

	return &models.QuizQuestion{
		Question:     text,
		Options:      datatypes.JSON(opts),
		CorrectIndex: correctIndex,
	}, nil
}

// ExportQuestions writes the course quiz questions to an XLSX workbook in the
// same column layout ImportQuestions expects.
func (s *quizService) ExportQuestions(ctx context.Context, courseID uint, userID uint) ([]byte, error) {
	if _, err := s.getCourseForQuizManage(ctx, courseID, userID); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByCourse(ctx, courseID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	f := excelize.NewFile()
	sheetName := "Questions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	// Drop the default sheet so the questions sheet is the first one,
	// which is where ImportQuestions reads from.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for i, header := range quizSheetHeaders {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, question := range quiz.Questions {
		var options []string
		if err := json.Unmarshal(question.Options, &options); err != nil {
			return nil, fmt.Errorf("failed to decode options for question %d: %w", question.ID, err)
		}

		row := make([]interface{}, 6)
		row[0] = question.Question
		for i := 0; i < 4; i++ {
			if i < len(options) {
				row[i+1] = options[i]
			} else {
				row[i+1] = ""
			}
		}
		row[5] = string(rune('A' + question.CorrectIndex))

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
