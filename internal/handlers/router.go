package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bochamaakram/knowway/internal/services"
	"github.com/bochamaakram/knowway/internal/utils"
)

type HandlerManager struct {
	authService services.AuthService

	authHandler       *AuthHandler
	courseHandler     *CourseHandler
	lessonHandler     *LessonHandler
	enrollmentHandler *EnrollmentHandler
	progressHandler   *ProgressHandler
	quizHandler       *QuizHandler
	chatHandler       *ChatHandler
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		authService:       serviceManager.Auth(),
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		courseHandler:     NewCourseHandler(serviceManager.Course(), logger),
		lessonHandler:     NewLessonHandler(serviceManager.Lesson(), logger),
		enrollmentHandler: NewEnrollmentHandler(serviceManager.Enrollment(), serviceManager.Points(), logger),
		progressHandler:   NewProgressHandler(serviceManager.Progress(), logger),
		quizHandler:       NewQuizHandler(serviceManager.Quiz(), logger),
		chatHandler:       NewChatHandler(serviceManager.Chat(), serviceManager.AIChat(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "knowway",
		})
	})

	auth := AuthMiddleware(hm.authService)
	optionalAuth := OptionalAuthMiddleware(hm.authService)

	api := router.Group("/api")
	{
		// Auth routes
		api.POST("/register", hm.authHandler.Register)
		api.POST("/login", hm.authHandler.Login)
		api.GET("/me", auth, hm.authHandler.Me)

		// Course catalog, public with optional identity for search logging
		courses := api.Group("/courses")
		{
			courses.GET("", optionalAuth, hm.courseHandler.ListCourses)
			courses.GET("/:id", hm.courseHandler.GetCourse)
			courses.POST("", auth, hm.courseHandler.CreateCourse)
			courses.PUT("/:id", auth, hm.courseHandler.UpdateCourse)
			courses.DELETE("/:id", auth, hm.courseHandler.DeleteCourse)

			// Lessons of a course
			courses.GET("/:id/lessons", hm.lessonHandler.ListLessons)

			// Enrollment
			courses.POST("/:id/enroll", auth, hm.enrollmentHandler.Enroll)
			courses.GET("/:id/enrolled", auth, hm.enrollmentHandler.IsEnrolled)

			// Progress
			courses.GET("/:id/progress", auth, hm.progressHandler.GetCourseProgress)

			// Favorites
			courses.POST("/:id/favorite", auth, hm.courseHandler.AddFavorite)
			courses.DELETE("/:id/favorite", auth, hm.courseHandler.RemoveFavorite)

			// Quiz
			courses.GET("/:id/quiz", auth, hm.quizHandler.GetQuiz)
			courses.PUT("/:id/quiz", auth, hm.quizHandler.SaveQuiz)
			courses.POST("/:id/quiz/submit", auth, hm.quizHandler.SubmitQuiz)
			courses.POST("/:id/quiz/import", auth, hm.quizHandler.ImportQuestions)
			courses.GET("/:id/quiz/export", auth, hm.quizHandler.ExportQuestions)

			// Course chat
			courses.GET("/:id/chat", auth, hm.chatHandler.GetMessages)
			courses.POST("/:id/chat", auth, hm.chatHandler.SendMessage)
		}

		// Lesson routes
		lessons := api.Group("/lessons")
		{
			lessons.GET("/:id", optionalAuth, hm.lessonHandler.GetLesson)
			lessons.POST("", auth, hm.lessonHandler.CreateLesson)
			lessons.PUT("/:id", auth, hm.lessonHandler.UpdateLesson)
			lessons.DELETE("/:id", auth, hm.lessonHandler.DeleteLesson)

			lessons.POST("/:id/complete", auth, hm.progressHandler.MarkComplete)
			lessons.DELETE("/:id/complete", auth, hm.progressHandler.MarkIncomplete)
		}

		// User-scoped resources
		api.GET("/purchases", auth, hm.enrollmentHandler.ListEnrollments)
		api.GET("/favorites", auth, hm.courseHandler.ListFavorites)

		points := api.Group("/points", auth)
		{
			points.GET("", hm.enrollmentHandler.GetBalance)
			points.POST("/credit", hm.enrollmentHandler.CreditPoints)
			points.GET("/history", hm.enrollmentHandler.PointsHistory)
		}

		// AI assistant
		api.POST("/ai-chat", auth, hm.chatHandler.Completion)

		// Admin
		api.GET("/search-logs", auth, hm.courseHandler.ListSearchLogs)
	}
}
