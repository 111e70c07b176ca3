package services

import (
	"github.com/bochamaakram/knowway/internal/models"
)

// AccessReason explains a gate decision.
type AccessReason string

const (
	AccessGranted      AccessReason = ""
	ReasonFreeCourse   AccessReason = "FREE_COURSE"
	ReasonEnrolled     AccessReason = "ENROLLED"
	ReasonCourseOwner  AccessReason = "COURSE_OWNER"
	ReasonNotEnrolled  AccessReason = "NOT_ENROLLED"
	ReasonUnauthorized AccessReason = "UNAUTHENTICATED"
)

// AccessDecision is the outcome of the lesson access gate.
type AccessDecision struct {
	Allowed bool
	Reason  AccessReason
}

// CanAccessLesson decides whether lesson content may be returned for a
// course. Pure: no storage access, no side effects. Free courses are open
// to everyone, including anonymous visitors. Paid courses require an
// enrollment, except for the course author and the super admin.
//
// Navigation metadata is not gated; callers return prev/next regardless of
// the decision so locked lessons stay visible in lists.
func CanAccessLesson(user *models.User, course *models.Course, enrolled bool) AccessDecision {
	if course.IsFree {
		return AccessDecision{Allowed: true, Reason: ReasonFreeCourse}
	}

	if user == nil {
		return AccessDecision{Allowed: false, Reason: ReasonUnauthorized}
	}

	if user.ID == course.UserID || user.IsSuperAdmin() {
		return AccessDecision{Allowed: true, Reason: ReasonCourseOwner}
	}

	if enrolled {
		return AccessDecision{Allowed: true, Reason: ReasonEnrolled}
	}

	return AccessDecision{Allowed: false, Reason: ReasonNotEnrolled}
}

// CanManageCourse decides whether a user may mutate a course or its
// lessons: the author or the super admin.
func CanManageCourse(user *models.User, course *models.Course) bool {
	if user == nil {
		return false
	}
	return user.ID == course.UserID || user.IsSuperAdmin()
}
