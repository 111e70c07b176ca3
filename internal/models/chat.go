package models

import (
	"time"
)

// CourseMessage is a course-scoped chat message. Reading and writing both
// require an enrollment for the course.
type CourseMessage struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CourseID  uint      `json:"course_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Message   string    `json:"message" gorm:"not null;size:1000" validate:"required,min=1,max=1000"`
	CreatedAt time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (CourseMessage) TableName() string {
	return "course_messages"
}

// ChatMessageView is the formatted message returned to clients.
type ChatMessageView struct {
	ID        uint      `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	IsOwn     bool      `json:"isOwn"`
}
