// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"fmt"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
	"github.com/shetashreya/earnings-call-analyzer/internal/repository"
	"github.com/shetashreya/earnings-call-analyzer/internal/segmenter"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
)

// IngestService 是纪要文本的摄入入口：规范化、切块、写入向量索引。
type IngestService interface {
	// Ingest 摄入一份原始纪要文本，返回写入的分块数。
	Ingest(ctx context.Context, company string, rawText string) (int, error)
	ListCompanies(ctx context.Context) ([]string, error)
	DeleteCompany(ctx context.Context, company string) error
}

type ingestService struct {
	chunkIndex  repository.ChunkIndex
	chunkingCfg config.ChunkingConfig
}

// NewIngestService 创建一个新的 IngestService 实例。
func NewIngestService(chunkIndex repository.ChunkIndex, chunkingCfg config.ChunkingConfig) IngestService {
	return &ingestService{
		chunkIndex:  chunkIndex,
		chunkingCfg: chunkingCfg,
	}
}

// Ingest 执行核心摄入流程：规范化 → 定长重叠切块 → 逐块向量化入索引。
func (s *ingestService) Ingest(ctx context.Context, company string, rawText string) (int, error) {
	log.Infof("[IngestService] 开始摄入纪要文本, company: %s, 原始长度: %d", company, len(rawText))

	text := segmenter.Normalize(rawText)
	if text == "" {
		log.Warnf("[IngestService] 规范化后文本为空, company: %s", company)
		return 0, nil
	}

	chunks, err := segmenter.Segment(text, s.chunkingCfg.Size, s.chunkingCfg.Overlap)
	if err != nil {
		return 0, fmt.Errorf("ingest %q: segmentation: %w", company, err)
	}
	log.Infof("[IngestService] 文本分块完成, company: %s, 分块数: %d (size=%d, overlap=%d)",
		company, len(chunks), s.chunkingCfg.Size, s.chunkingCfg.Overlap)

	if err := s.chunkIndex.Upsert(ctx, company, chunks); err != nil {
		return 0, fmt.Errorf("ingest %q: indexing: %w", company, err)
	}

	log.Infof("[IngestService] 摄入完成, company: %s, 分块数: %d", company, len(chunks))
	return len(chunks), nil
}

// ListCompanies 返回索引中现存的公司列表（按名称升序）。
func (s *ingestService) ListCompanies(ctx context.Context) ([]string, error) {
	return s.chunkIndex.ListCompanies(ctx)
}

// DeleteCompany 删除某公司在向量索引中的全部记录。
func (s *ingestService) DeleteCompany(ctx context.Context, company string) error {
	return s.chunkIndex.DeleteCompany(ctx, company)
}
