package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Quiz is the final quiz of a course, one per course.
type Quiz struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	CourseID     uint   `json:"course_id" gorm:"not null;uniqueIndex"`
	Title        string `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	PassingScore int    `json:"passing_score" gorm:"default:85" validate:"min=0,max=100"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Questions []QuizQuestion `json:"questions" gorm:"foreignKey:QuizID"`
}

func (Quiz) TableName() string {
	return "course_quizzes"
}

// QuizQuestion holds its options as a JSON array of strings; CorrectIndex
// points into that array and is never serialized to learners.
type QuizQuestion struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	QuizID       uint           `json:"quiz_id" gorm:"not null;index"`
	Question     string         `json:"question" gorm:"not null;type:text" validate:"required,min=1"`
	Options      datatypes.JSON `json:"options" gorm:"not null"`
	CorrectIndex int            `json:"-" gorm:"not null" validate:"min=0"`
	OrderIndex   int            `json:"order_index" gorm:"not null"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// QuizResult is the graded outcome of a submission.
type QuizResult struct {
	Score     int  `json:"score"` // 0-100, rounded
	Correct   int  `json:"correct"`
	Total     int  `json:"total"`
	Passed    bool `json:"passed"`
	BestScore int  `json:"best_score"`
}

// QuizImportSummary reports the outcome of an XLSX question import.
type QuizImportSummary struct {
	TotalRows        int           `json:"total_rows"`
	SuccessCount     int           `json:"success_count"`
	ErrorCount       int           `json:"error_count"`
	CreatedQuestions []uint        `json:"created_questions"`
	Errors           []ImportError `json:"errors,omitempty"`
	ProcessingTime   time.Duration `json:"processing_time"`
}

type ImportError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}
