package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bochamaakram/knowway/internal/services"
	"github.com/bochamaakram/knowway/internal/utils"
)

type EnrollmentHandler struct {
	BaseHandler
	enrollmentService services.EnrollmentService
	pointsService     services.PointsService
}

func NewEnrollmentHandler(
	enrollmentService services.EnrollmentService,
	pointsService services.PointsService,
	logger utils.Logger,
) *EnrollmentHandler {
	return &EnrollmentHandler{
		BaseHandler:       NewBaseHandler(logger),
		enrollmentService: enrollmentService,
		pointsService:     pointsService,
	}
}

// Enroll enrolls the caller in a course, debiting points for paid courses.
// Re-enrolling returns the existing enrollment with 200 instead of 201.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	h.LogRequest(c, "Enrolling in course", "course_id", courseID)

	already, err := h.enrollmentService.IsEnrolled(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	enrollment, err := h.enrollmentService.Enroll(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	status := http.StatusCreated
	if already {
		status = http.StatusOK
	}
	c.JSON(status, enrollment)
}

func (h *EnrollmentHandler) IsEnrolled(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	enrolled, err := h.enrollmentService.IsEnrolled(c.Request.Context(), userID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"enrolled": enrolled})
}

func (h *EnrollmentHandler) ListEnrollments(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	enrollments, err := h.enrollmentService.ListEnrollments(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, enrollments)
}

// ===== POINTS =====

type CreditPointsRequest struct {
	Amount int    `json:"amount" binding:"required"`
	Reason string `json:"reason"`
}

func (h *EnrollmentHandler) GetBalance(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	balance, err := h.pointsService.Balance(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": balance})
}

func (h *EnrollmentHandler) CreditPoints(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req CreditPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	reason := req.Reason
	if reason == "" {
		reason = "top-up"
	}

	balance, err := h.pointsService.Credit(c.Request.Context(), userID, req.Amount, reason)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": balance})
}

func (h *EnrollmentHandler) PointsHistory(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	page := h.parseIntQuery(c, "page", 1)
	limit := h.parseIntQuery(c, "limit", 20)

	transactions, total, err := h.pointsService.History(c.Request.Context(), userID, page, limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Data:  transactions,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}
