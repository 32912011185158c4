package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
)

const defaultOllamaTimeout = 120 * time.Second

// Ollama 是本地兜底生成后端，调用 Ollama 的非流式生成接口。
type Ollama struct {
	cfg    config.OllamaConfig
	client *http.Client
}

// NewOllama 创建一个新的 Ollama 客户端，请求超时默认 120 秒。
func NewOllama(cfg config.OllamaConfig) *Ollama {
	timeout := defaultOllamaTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &Ollama{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Name 返回后端标识。
func (o *Ollama) Name() string { return "ollama" }

// Generate 调用 Ollama /api/generate 生成完整文本（stream 固定关闭）。
// 非 2xx 或响应缺少 response 字段时返回携带原始响应体的错误。
func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:  o.cfg.Model,
		Prompt: prompt,
		Stream: false,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.cfg.BaseURL+"/api/generate", bytes.NewReader(reqBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call ollama generate api: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read ollama response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ollama returned non-200 status: %s, body: %s", resp.Status, string(rawBody))
	}

	var genResp generateResponse
	if err := json.Unmarshal(rawBody, &genResp); err != nil {
		return "", fmt.Errorf("failed to decode ollama response: %w, body: %s", err, string(rawBody))
	}

	if genResp.Response == "" {
		return "", fmt.Errorf("unexpected ollama response format, missing response field, body: %s", string(rawBody))
	}

	return genResp.Response, nil
}
