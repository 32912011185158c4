// Package repository 封装了对底层存储的数据操作。
package repository

import (
	"context"
	"fmt"

	"github.com/shetashreya/earnings-call-analyzer/internal/model"
)

// ChunkIndex 定义了按公司分区的向量索引操作。
//
// Upsert 按给定顺序逐块写入：第 i 块的记录键固定为 "<company>_<i>"，
// 重新摄入同一公司会覆盖同序号的旧记录而不是累积副本。任何一块的
// 向量化或写入失败都会立即中止并上抛错误，已写入的 0..i-1 块保持提交。
// 整批没有原子性保证，这是一个明确的已知限制。
//
// Search 按余弦相似度从高到低返回至多 topK 条记录；company 为空串时
// 不做范围限制。命中不足 topK 不是错误。
type ChunkIndex interface {
	Upsert(ctx context.Context, company string, chunks []string) error
	Search(ctx context.Context, query string, company string, topK int) ([]model.ChunkHit, error)
	ListCompanies(ctx context.Context) ([]string, error)
	DeleteCompany(ctx context.Context, company string) error
}

// WriteError 包装向量索引写入路径上的底层存储失败。
type WriteError struct {
	Company  string
	ChunkSeq int
	Err      error
}

func (e *WriteError) Error() string {
	if e.ChunkSeq < 0 {
		return fmt.Sprintf("index write failed: company=%s: %v", e.Company, e.Err)
	}
	return fmt.Sprintf("index write failed: company=%s, chunk_seq=%d: %v", e.Company, e.ChunkSeq, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// QueryError 包装向量索引查询路径上的底层存储失败。
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("index query failed: op=%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// VectorID 构造一条索引记录的唯一键。
func VectorID(company string, chunkSeq int) string {
	return fmt.Sprintf("%s_%d", company, chunkSeq)
}
