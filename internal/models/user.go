package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleLearner    UserRole = "learner"
	RoleTeacher    UserRole = "teacher"
	RoleSuperAdmin UserRole = "super_admin"
)

// SuperAdminID is the identity pinned to super_admin regardless of the
// stored role. The override is applied at read time by
// EffectiveRole, never written back to the row.
const SuperAdminID uint = 1

type User struct {
	ID       uint     `json:"id" gorm:"primaryKey"`
	Username string   `json:"username" gorm:"uniqueIndex;not null;size:30" validate:"required,username"`
	Email    string   `json:"email" gorm:"uniqueIndex;not null;size:254" validate:"required,email"`
	Password string   `json:"-" gorm:"not null;size:100"`
	Role     UserRole `json:"role" gorm:"default:learner;size:20" validate:"omitempty,user_role"`
	Points   int      `json:"points" gorm:"default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}

// EffectiveRole resolves the role used at authorization boundaries.
// User id 1 is always super_admin, whatever the stored role says.
func (u *User) EffectiveRole() UserRole {
	if u.ID == SuperAdminID {
		return RoleSuperAdmin
	}
	if u.Role == "" {
		return RoleLearner
	}
	return u.Role
}

func (u *User) IsSuperAdmin() bool {
	return u.EffectiveRole() == RoleSuperAdmin
}
