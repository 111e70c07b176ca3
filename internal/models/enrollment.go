package models

import (
	"time"
)

// Enrollment records that a user has acquired access to a course, at most
// once per (user, course). Progress is a denormalized cache of the
// completion percentage; the lesson_progress table is the source of truth
// and the progress service is the only writer of this field.
type Enrollment struct {
	ID       uint `json:"id" gorm:"primaryKey"`
	UserID   uint `json:"user_id" gorm:"not null;uniqueIndex:idx_purchases_user_course"`
	CourseID uint `json:"course_id" gorm:"not null;uniqueIndex:idx_purchases_user_course"`
	// PointsSpent is what the enrollment actually cost; 0 for free courses.
	PointsSpent int `json:"points_spent" gorm:"default:0"`
	Progress    int `json:"progress" gorm:"default:0"` // 0-100, rounded

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Course Course `json:"course" gorm:"foreignKey:CourseID"`
	User   User   `json:"-" gorm:"foreignKey:UserID"`
}

func (Enrollment) TableName() string {
	return "purchases"
}

// LessonProgress is one row per (user, lesson) the user has ever toggled.
// Rows are updated, never deleted, when a lesson is marked incomplete, so
// the history of interaction survives. CourseID is denormalized for
// aggregate counts.
type LessonProgress struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"not null;uniqueIndex:idx_lesson_progress_user_lesson"`
	LessonID    uint       `json:"lesson_id" gorm:"not null;uniqueIndex:idx_lesson_progress_user_lesson"`
	CourseID    uint       `json:"course_id" gorm:"not null;index"`
	Completed   bool       `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LessonProgress) TableName() string {
	return "lesson_progress"
}

// CourseProgress is the aggregate view returned to callers.
type CourseProgress struct {
	Total              int    `json:"total"`
	Completed          int    `json:"completed"`
	Percentage         int    `json:"percentage"`
	CompletedLessonIDs []uint `json:"completedLessonIds"`
}
