// Package embedding provides a client for interacting with embedding models.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
)

const defaultTimeout = 60 * time.Second

// BackendError 表示 Embedding 后端不可达、返回非 2xx 或响应缺少向量字段。
// RawBody 保留后端原始响应内容，便于排查。
type BackendError struct {
	Reason  string
	Status  string
	RawBody string
	Err     error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("embedding backend error: %s", e.Reason)
	if e.Status != "" {
		msg += fmt.Sprintf(", status: %s", e.Status)
	}
	if e.RawBody != "" {
		msg += fmt.Sprintf(", body: %s", e.RawBody)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

func (e *BackendError) Unwrap() error { return e.Err }

// Client defines the interface for an embedding client.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

type ollamaClient struct {
	cfg    config.EmbeddingConfig
	client *http.Client
}

// NewClient creates a new embedding client backed by an Ollama server.
// 摄入和查询两侧必须复用同一个客户端配置，否则相似度没有可比性。
func NewClient(cfg config.EmbeddingConfig) Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &ollamaClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type embeddingRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// CreateEmbedding calls the Ollama embeddings API to get the vector for a given text.
// 本层不做任何重试，失败直接上抛由调用方决定。
func (c *ollamaClient) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model:  c.cfg.Model,
		Prompt: text,
	}

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/api/embeddings", bytes.NewReader(reqBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		log.Errorf("[EmbeddingClient] 调用 Embedding API 失败, error: %v", err)
		return nil, &BackendError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Reason: "failed to read response", Status: resp.Status, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		log.Errorf("[EmbeddingClient] Embedding API 返回非 200 状态码: %s, body: %s", resp.Status, string(rawBody))
		return nil, &BackendError{Reason: "non-200 status", Status: resp.Status, RawBody: string(rawBody)}
	}

	var embeddingResp embeddingResponse
	if err := json.Unmarshal(rawBody, &embeddingResp); err != nil {
		log.Errorf("[EmbeddingClient] 解析 Embedding API 响应失败, error: %v", err)
		return nil, &BackendError{Reason: "malformed response", Status: resp.Status, RawBody: string(rawBody), Err: err}
	}

	if len(embeddingResp.Embedding) == 0 {
		log.Warnf("[EmbeddingClient] Embedding API 返回了空的向量数据")
		return nil, &BackendError{Reason: "missing embedding field", Status: resp.Status, RawBody: string(rawBody)}
	}

	return embeddingResp.Embedding, nil
}
