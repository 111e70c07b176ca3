package models

import (
	"time"

	"gorm.io/gorm"
)

// Lesson belongs to exactly one course. OrderIndex establishes the total
// order within the course; new lessons get max(order_index)+1.
type Lesson struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	CourseID   uint    `json:"course_id" gorm:"not null;index"`
	Title      string  `json:"title" gorm:"not null;size:200" validate:"required,min=1,max=200"`
	Content    string  `json:"content" gorm:"type:text"`
	VideoURL   *string `json:"video_url" gorm:"size:500" validate:"omitempty,max=500"`
	OrderIndex int     `json:"order_index" gorm:"not null;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Course Course `json:"-" gorm:"foreignKey:CourseID"`
}

func (Lesson) TableName() string {
	return "course_lessons"
}

// LessonRef is the navigation projection of a lesson (ordered lists,
// prev/next links). It never carries content.
type LessonRef struct {
	ID         uint   `json:"id"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index"`
}
