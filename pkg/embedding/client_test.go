package embedding

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
)

func newTestClient(baseURL string) Client {
	return NewClient(config.EmbeddingConfig{
		BaseURL:        baseURL,
		Model:          "test-embed",
		TimeoutSeconds: 5,
	})
}

func TestCreateEmbeddingSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"embedding": [0.1, 0.2, 0.3]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	vector, err := client.CreateEmbedding(context.Background(), "quarterly revenue guidance")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
}

func TestCreateEmbeddingNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "model not loaded"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	vector, err := client.CreateEmbedding(context.Background(), "text")
	require.Error(t, err)
	assert.Nil(t, vector)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "non-200 status", backendErr.Reason)
	assert.Contains(t, backendErr.RawBody, "model not loaded")
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestCreateEmbeddingMissingField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected": true}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateEmbedding(context.Background(), "text")
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "missing embedding field", backendErr.Reason)
	assert.Contains(t, backendErr.RawBody, "unexpected")
}

func TestCreateEmbeddingMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.CreateEmbedding(context.Background(), "text")
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "malformed response", backendErr.Reason)
}

func TestCreateEmbeddingServerUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // 立刻关闭，制造连接失败

	client := newTestClient(server.URL)
	_, err := client.CreateEmbedding(context.Background(), "text")
	require.Error(t, err)

	var backendErr *BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "request failed", backendErr.Reason)
}
