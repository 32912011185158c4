package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/shetashreya/earnings-call-analyzer/internal/model"
	"github.com/shetashreya/earnings-call-analyzer/pkg/embedding"
)

// memoryChunkIndex 是 ChunkIndex 的进程内实现，用暴力余弦相似度检索。
// 不持久化，仅用于本地开发和测试；对外语义与 ES 实现保持一致。
// 相同得分时按记录键升序排序，保证同一查询的结果可复现。
type memoryChunkIndex struct {
	embeddingClient embedding.Client
	mu              sync.RWMutex
	records         map[string]*memoryRecord
}

type memoryRecord struct {
	company  string
	chunkSeq int
	text     string
	vector   []float32
}

// NewMemoryChunkIndex 创建一个进程内向量索引实例。
func NewMemoryChunkIndex(embeddingClient embedding.Client) ChunkIndex {
	return &memoryChunkIndex{
		embeddingClient: embeddingClient,
		records:         make(map[string]*memoryRecord),
	}
}

// Upsert 逐块向量化后按键写入，重复键直接覆盖。
func (r *memoryChunkIndex) Upsert(ctx context.Context, company string, chunks []string) error {
	for i, chunk := range chunks {
		vector, err := r.embeddingClient.CreateEmbedding(ctx, chunk)
		if err != nil {
			return fmt.Errorf("块 %d 向量化失败: %w", i, err)
		}

		r.mu.Lock()
		r.records[VectorID(company, i)] = &memoryRecord{
			company:  company,
			chunkSeq: i,
			text:     chunk,
			vector:   vector,
		}
		r.mu.Unlock()
	}
	return nil
}

// Search 对全部（或指定公司的）记录计算余弦相似度并取前 topK 条。
func (r *memoryChunkIndex) Search(ctx context.Context, query string, company string, topK int) ([]model.ChunkHit, error) {
	queryVector, err := r.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	hits := make([]model.ChunkHit, 0, len(r.records))
	for id, rec := range r.records {
		if company != "" && rec.company != company {
			continue
		}
		hits = append(hits, model.ChunkHit{
			VectorID:    id,
			Company:     rec.company,
			ChunkSeq:    rec.chunkSeq,
			TextContent: rec.text,
			Score:       cosineSimilarity(queryVector, rec.vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].VectorID < hits[j].VectorID
	})

	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits, nil
}

// ListCompanies 扫描全部记录推导公司集合，升序返回。
func (r *memoryChunkIndex) ListCompanies(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rec := range r.records {
		seen[rec.company] = struct{}{}
	}
	companies := make([]string, 0, len(seen))
	for company := range seen {
		companies = append(companies, company)
	}
	sort.Strings(companies)
	return companies, nil
}

// DeleteCompany 删除该公司的全部记录，无记录时为 no-op。
func (r *memoryChunkIndex) DeleteCompany(ctx context.Context, company string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.records {
		if rec.company == company {
			delete(r.records, id)
		}
	}
	return nil
}

// cosineSimilarity 计算两个向量的余弦相似度，零向量记为 0。
func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
