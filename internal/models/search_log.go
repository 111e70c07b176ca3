package models

import (
	"time"
)

// SearchLog records catalog search queries for the admin panel.
type SearchLog struct {
	ID      uint   `json:"id" gorm:"primaryKey"`
	Query   string `json:"query" gorm:"not null;size:200"`
	UserID  *uint  `json:"user_id" gorm:"index"` // nil for anonymous searches
	Results int    `json:"results" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (SearchLog) TableName() string {
	return "search_logs"
}
