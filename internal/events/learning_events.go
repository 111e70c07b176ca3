package events

import (
	"time"
)

// EventType represents different types of learning events
type EventType string

const (
	// Enrollment events
	EventEnrollmentCreated EventType = "enrollment.created"

	// Progress events
	EventLessonCompleted EventType = "lesson.completed"
	EventCourseCompleted EventType = "course.completed"

	// Quiz events
	EventQuizPassed EventType = "quiz.passed"
)

// LearningEvent is the base event structure for all learning events
type LearningEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type EnrollmentCreatedEvent struct {
	EnrollmentID uint      `json:"enrollment_id"`
	UserID       uint      `json:"user_id"`
	CourseID     uint      `json:"course_id"`
	CourseTitle  string    `json:"course_title"`
	PointsSpent  int       `json:"points_spent"`
	EnrolledAt   time.Time `json:"enrolled_at"`
}

type LessonCompletedEvent struct {
	UserID     uint      `json:"user_id"`
	LessonID   uint      `json:"lesson_id"`
	CourseID   uint      `json:"course_id"`
	Percentage int       `json:"percentage"`
	At         time.Time `json:"at"`
}

type CourseCompletedEvent struct {
	UserID      uint      `json:"user_id"`
	CourseID    uint      `json:"course_id"`
	CourseTitle string    `json:"course_title"`
	CompletedAt time.Time `json:"completed_at"`
}

type QuizPassedEvent struct {
	UserID   uint      `json:"user_id"`
	CourseID uint      `json:"course_id"`
	QuizID   uint      `json:"quiz_id"`
	Score    int       `json:"score"`
	PassedAt time.Time `json:"passed_at"`
}
