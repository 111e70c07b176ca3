package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bochamaakram/knowway/internal/services"
	"github.com/bochamaakram/knowway/internal/utils"
)

type ChatHandler struct {
	BaseHandler
	chatService   services.ChatService
	aiChatService services.AIChatService
}

func NewChatHandler(
	chatService services.ChatService,
	aiChatService services.AIChatService,
	logger utils.Logger,
) *ChatHandler {
	return &ChatHandler{
		BaseHandler:   NewBaseHandler(logger),
		chatService:   chatService,
		aiChatService: aiChatService,
	}
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	messages, err := h.chatService.GetMessages(c.Request.Context(), courseID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	courseID := h.parseIDParam(c, "id")
	if courseID == 0 {
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), courseID, userID, req.Message)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// ===== AI ASSISTANT =====

type AICompletionRequest struct {
	Messages []services.AIChatMessage `json:"messages" binding:"required"`
}

// Completion proxies a conversation to the configured AI provider. The
// route requires authentication so the upstream quota is not anonymous.
func (h *ChatHandler) Completion(c *gin.Context) {
	if _, ok := h.currentUserID(c); !ok {
		return
	}

	var req AICompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	reply, err := h.aiChatService.Completion(c.Request.Context(), req.Messages)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}
