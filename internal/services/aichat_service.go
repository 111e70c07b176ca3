package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/bochamaakram/knowway/internal/config"
)

const openRouterURL = "https://openrouter.ai/api/v1/chat/completions"

type AIChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

type openRouterRequest struct {
	Model    string          `json:"model"`
	Messages []AIChatMessage `json:"messages"`
}

type openRouterResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

type aiChatService struct {
	client *resty.Client
	cfg    *config.Config
	logger *slog.Logger
}

func NewAIChatService(cfg *config.Config, logger *slog.Logger) AIChatService {
	client := resty.New().
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &aiChatService{client: client, cfg: cfg, logger: logger}
}

// Completion forwards the conversation to OpenRouter and returns the
// assistant's reply. The API key never reaches the client.
func (s *aiChatService) Completion(ctx context.Context, messages []AIChatMessage) (string, error) {
	if s.cfg.OpenRouterAPIKey == "" {
		return "", ErrAIServiceNotConfigured
	}
	if len(messages) == 0 {
		return "", NewValidationError("messages", "at least one message is required", nil)
	}

	var result openRouterResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(s.cfg.OpenRouterAPIKey).
		SetHeader("HTTP-Referer", s.cfg.SiteURL).
		SetHeader("X-Title", "knowway").
		SetBody(openRouterRequest{
			Model:    s.cfg.OpenRouterModel,
			Messages: messages,
		}).
		SetResult(&result).
		Post(openRouterURL)
	if err != nil {
		s.logger.Error("AI completion request failed", "error", err)
		return "", ErrAIServiceUnavailable
	}

	if resp.IsError() {
		s.logger.Error("AI completion returned error status",
			"status", resp.StatusCode(),
			"body", resp.String())
		return "", ErrAIServiceUnavailable
	}
	if result.Error != nil {
		s.logger.Error("AI completion returned error payload",
			"code", result.Error.Code,
			"message", result.Error.Message)
		return "", ErrAIServiceUnavailable
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("ai completion returned no choices: %w", ErrAIServiceUnavailable)
	}

	return result.Choices[0].Message.Content, nil
}
