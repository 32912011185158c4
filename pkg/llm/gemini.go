package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
)

const defaultGeminiTimeout = 120 * time.Second

// Gemini 是主生成后端，通过 Google GenAI SDK 调用云端模型。
type Gemini struct {
	model   *genai.GenerativeModel
	timeout time.Duration
}

// NewGemini 创建一个新的 Gemini 客户端。
func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, err
	}

	timeout := defaultGeminiTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	return &Gemini{
		model:   client.GenerativeModel(cfg.Model),
		timeout: timeout,
	}, nil
}

// Name 返回后端标识。
func (g *Gemini) Name() string { return "gemini" }

// Generate 向 Gemini 发送 prompt 并返回完整文本，调用带显式超时上界。
func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text content: %+v", resp)
	}
	return sb.String(), nil
}
