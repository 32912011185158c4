package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
	"github.com/shetashreya/earnings-call-analyzer/internal/model"
	"github.com/shetashreya/earnings-call-analyzer/internal/segmenter"
)

// recordingChunkIndex 记录 Upsert 收到的分块。
type recordingChunkIndex struct {
	upsertErr error
	company   string
	chunks    []string
}

func (r *recordingChunkIndex) Upsert(_ context.Context, company string, chunks []string) error {
	r.company = company
	r.chunks = chunks
	return r.upsertErr
}

func (r *recordingChunkIndex) Search(_ context.Context, _ string, _ string, _ int) ([]model.ChunkHit, error) {
	return nil, nil
}

func (r *recordingChunkIndex) ListCompanies(_ context.Context) ([]string, error) { return nil, nil }

func (r *recordingChunkIndex) DeleteCompany(_ context.Context, _ string) error { return nil }

func TestIngestNormalizesBeforeChunking(t *testing.T) {
	index := &recordingChunkIndex{}
	svc := NewIngestService(index, config.ChunkingConfig{Size: 1000, Overlap: 200})

	count, err := svc.Ingest(context.Background(), "Acme", "  revenue\t\tgrew\n\nstrongly  ")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "Acme", index.company)
	require.Len(t, index.chunks, 1)
	assert.Equal(t, "revenue grew strongly", index.chunks[0])
}

func TestIngestChunkCountMatchesWindowing(t *testing.T) {
	index := &recordingChunkIndex{}
	svc := NewIngestService(index, config.ChunkingConfig{Size: 1000, Overlap: 200})

	count, err := svc.Ingest(context.Background(), "Acme", strings.Repeat("a", 5000))
	require.NoError(t, err)
	assert.Equal(t, 6, count)
	assert.Len(t, index.chunks, 6)
}

func TestIngestEmptyAfterNormalization(t *testing.T) {
	index := &recordingChunkIndex{}
	svc := NewIngestService(index, config.ChunkingConfig{Size: 1000, Overlap: 200})

	count, err := svc.Ingest(context.Background(), "Acme", " \n\t ")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, index.chunks)
}

func TestIngestInvalidChunkingConfig(t *testing.T) {
	index := &recordingChunkIndex{}
	svc := NewIngestService(index, config.ChunkingConfig{Size: 200, Overlap: 200})

	_, err := svc.Ingest(context.Background(), "Acme", "some transcript text")
	require.Error(t, err)

	var cfgErr *segmenter.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, index.chunks)
}

func TestIngestIndexingFailure(t *testing.T) {
	index := &recordingChunkIndex{upsertErr: errors.New("elasticsearch unavailable")}
	svc := NewIngestService(index, config.ChunkingConfig{Size: 1000, Overlap: 200})

	count, err := svc.Ingest(context.Background(), "Acme", "some transcript text")
	require.Error(t, err)
	assert.Zero(t, count)
	assert.Contains(t, err.Error(), "Acme")
	assert.Contains(t, err.Error(), "indexing")
}
