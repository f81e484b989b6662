package textgen

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gratitude-journal/internal/domain"
	openai "gratitude-journal/internal/infra/openai"
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAI реализует domain.TextGenerator через Chat Completions.
type OpenAI struct {
	client  chatClient
	model   string
	timeout time.Duration
}

var _ domain.TextGenerator = (*OpenAI)(nil)

// NewOpenAI создаёт генератор.
func NewOpenAI(client chatClient, model string, timeout time.Duration) *OpenAI {
	if model == "" {
		model = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OpenAI{client: client, model: model, timeout: timeout}
}

// Generate отправляет системную инструкцию и промпт, возвращает текст ответа.
func (g *OpenAI) Generate(ctx context.Context, req domain.TextRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	messages := make([]openai.ChatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatMessage{Role: openai.RoleSystem, Content: req.System})
	}
	messages = append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: req.Prompt})

	chatReq := openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ResponseFormatTypeJSONObject}
	}

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	content, ok := resp.Content()
	if !ok || strings.TrimSpace(content) == "" {
		return "", ErrEmptyResponse
	}
	return strings.TrimSpace(content), nil
}
