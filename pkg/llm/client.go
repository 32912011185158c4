// Package llm provides text generation with a primary cloud backend and a
// local fallback backend.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
)

// Provider 是单个文本生成后端。实现必须自行保证调用有上界超时。
type Provider interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// Attempt 记录一次后端尝试及其失败原因。
type Attempt struct {
	Provider string
	Err      error
}

// BackendError 仅在所有已配置的生成后端都失败后返回，
// 其中保留每个后端的尝试记录。
type BackendError struct {
	Attempts []Attempt
}

func (e *BackendError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
	}
	return fmt.Sprintf("llm: all generation backends failed [%s]", strings.Join(parts, "; "))
}

// Unwrap 返回最后一个后端的错误，备用后端失败即终态。
func (e *BackendError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// Client defines the interface for an LLM client.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type fallbackClient struct {
	providers []Provider
}

// NewClient 根据配置装配生成后端链：
// Gemini 开启且提供 API Key 时作为主后端优先尝试，Ollama 始终作为兜底。
func NewClient(cfg config.LLMConfig) (Client, error) {
	var providers []Provider

	if cfg.Gemini.Enabled && cfg.Gemini.APIKey != "" {
		gemini, err := NewGemini(context.Background(), cfg.Gemini)
		if err != nil {
			return nil, fmt.Errorf("failed to init gemini client: %w", err)
		}
		providers = append(providers, gemini)
	}

	providers = append(providers, NewOllama(cfg.Ollama))
	return NewWithProviders(providers...), nil
}

// NewWithProviders 用给定的后端顺序装配客户端，按序尝试直到成功。
func NewWithProviders(providers ...Provider) Client {
	return &fallbackClient{providers: providers}
}

// Generate 依次尝试每个后端：前一个失败时记录原因并用同一 prompt 重试下一个，
// 全部失败才返回 *BackendError。除这一次主备切换外不做任何重试。
func (c *fallbackClient) Generate(ctx context.Context, prompt string) (string, error) {
	var attempts []Attempt
	for i, p := range c.providers {
		text, err := p.Generate(ctx, prompt)
		if err == nil {
			return text, nil
		}
		attempts = append(attempts, Attempt{Provider: p.Name(), Err: err})
		if i < len(c.providers)-1 {
			log.Warnf("[LLM] 后端 %s 生成失败，切换到下一个后端: %v", p.Name(), err)
		} else {
			log.Errorf("[LLM] 后端 %s 生成失败，已无可用后端: %v", p.Name(), err)
		}
	}
	return "", &BackendError{Attempts: attempts}
}
