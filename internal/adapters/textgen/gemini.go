package textgen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"gratitude-journal/internal/domain"
	"gratitude-journal/internal/infra/metrics"
)

// ErrEmptyResponse возвращается, если модель ничего не ответила.
var ErrEmptyResponse = errors.New("textgen: пустой ответ модели")

// Gemini реализует domain.TextGenerator через Google GenAI.
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

var _ domain.TextGenerator = (*Gemini)(nil)

// NewGemini создаёт клиента Gemini API.
func NewGemini(ctx context.Context, apiKey, model string, timeout time.Duration) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Gemini{client: client, model: model, timeout: timeout}, nil
}

// Generate вызывает GenerateContent и возвращает текст ответа.
func (g *Gemini) Generate(ctx context.Context, req domain.TextRequest) (text string, err error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("gemini", "generate_content", g.model, start, err) }()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	if u := resp.UsageMetadata; u != nil {
		metrics.ObserveLLMGeneration(g.model, time.Since(start), int(u.PromptTokenCount), int(u.CandidatesTokenCount), int(u.TotalTokenCount))
	}
	text = strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
