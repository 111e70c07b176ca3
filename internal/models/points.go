package models

import (
	"time"
)

type PointsTransactionType string

const (
	PointsCredit PointsTransactionType = "credit"
	PointsDebit  PointsTransactionType = "debit"
)

// PointsTransaction is the append-only record of every balance change.
// The users.points column is kept in sync within the same transaction.
type PointsTransaction struct {
	ID     uint                  `json:"id" gorm:"primaryKey"`
	UserID uint                  `json:"user_id" gorm:"not null;index"`
	Type   PointsTransactionType `json:"type" gorm:"not null;size:10"`
	Amount int                   `json:"amount" gorm:"not null"` // always positive
	Reason string                `json:"reason" gorm:"size:200"`
	// CourseID is set when the transaction paid for an enrollment.
	CourseID *uint `json:"course_id" gorm:"index"`

	CreatedAt time.Time `json:"created_at"`
}

func (PointsTransaction) TableName() string {
	return "points_transactions"
}
