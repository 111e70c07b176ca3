package models

import (
	"time"

	"gorm.io/gorm"
)

type CourseLevel string

const (
	LevelBeginner     CourseLevel = "beginner"
	LevelIntermediate CourseLevel = "intermediate"
	LevelAdvanced     CourseLevel = "advanced"
)

type Course struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string     `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Category    string      `json:"category" gorm:"size:50;index" validate:"omitempty,max=50"`
	Level       CourseLevel `json:"level" gorm:"default:beginner;size:20" validate:"omitempty,course_level"`
	Duration    int         `json:"duration" gorm:"default:0" validate:"min=0,max=1000"` // hours
	ImageURL    *string     `json:"image_url" gorm:"size:500" validate:"omitempty,max=500"`

	// Pricing: IsFree true means Price is never charged at enrollment.
	IsFree bool `json:"is_free" gorm:"default:true"`
	Price  int  `json:"price" gorm:"default:0" validate:"min=0"` // points

	UserID    uint           `json:"user_id" gorm:"not null;index"` // author
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Author  User     `json:"author" gorm:"foreignKey:UserID"`
	Lessons []Lesson `json:"lessons,omitempty" gorm:"foreignKey:CourseID"`

	// Computed fields (not stored)
	LessonCount int `json:"lesson_count" gorm:"-"`
}

func (Course) TableName() string {
	return "courses"
}

// Favorite links a user to a bookmarked course, at most once per pair.
type Favorite struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_favorites_user_course"`
	CourseID  uint      `json:"course_id" gorm:"not null;uniqueIndex:idx_favorites_user_course"`
	CreatedAt time.Time `json:"created_at"`

	Course Course `json:"course" gorm:"foreignKey:CourseID"`
}

func (Favorite) TableName() string {
	return "favorites"
}
