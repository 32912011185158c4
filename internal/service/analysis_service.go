package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shetashreya/earnings-call-analyzer/internal/model"
	"github.com/shetashreya/earnings-call-analyzer/internal/repository"
	"github.com/shetashreya/earnings-call-analyzer/pkg/llm"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
)

// 检索用的固定领域查询语句，覆盖分析关心的几个财务维度。
const domainQuery = "financial performance revenue growth profitability outlook risks"

const (
	// 单次分析检索的分块数与证据条数上限。
	analysisTopK  = 10
	evidenceLimit = 3

	// 拼入 prompt 的检索上下文硬上限（字符数）。
	// 对比路径沿用同一上限逐块封顶，保证组合 prompt 随公司数线性有界增长。
	contextCharBudget = 4000
)

// ErrNotEnoughCompanies 表示对比请求给出的公司数不足两家。
var ErrNotEnoughCompanies = errors.New("comparison requires at least two companies")

// 下游渲染依赖的字段标签（INVESTABLE:/SECTOR:/SUMMARY:/REASONS: 等）
// 是模型自由文本上唯一的结构约定，模板中的标签必须原样保留。
const analysisPromptTemplate = `Based on the following earnings call transcript excerpts for %s, provide:
1. A 3-4 line investment summary
2. Whether the company is investable (Yes/No/Maybe)
3. The primary sector/industry
4. Key reasons (2-3 bullet points)

Context:
%s

Format your response as:
INVESTABLE: [Yes/No/Maybe]
SECTOR: [sector name]
SUMMARY: [3-4 line summary]
REASONS:
- [reason 1]
- [reason 2]
- [reason 3]
`

const comparisonPromptTemplate = `Compare these companies and recommend which one to invest in:

%s

Provide:
1. Side-by-side comparison of key metrics
2. Recommended company to invest in
3. Clear reasoning (3-4 lines)

Format:
RECOMMENDATION: [Company Name]
REASONING: [explanation]
COMPARISON:
[comparison details]
`

// AnalysisService 把向量检索和文本生成组合为结构化的投资分析。
// 它是纯编排层：任何组件错误都会带着公司和阶段信息原样上抛，
// 不会合成部分降级的结果。
type AnalysisService interface {
	Analyze(ctx context.Context, company string) (*model.Analysis, error)
	Compare(ctx context.Context, companies []string) (*model.Comparison, error)
}

type analysisService struct {
	chunkIndex repository.ChunkIndex
	llmClient  llm.Client
}

// NewAnalysisService 创建一个新的 AnalysisService 实例。
func NewAnalysisService(chunkIndex repository.ChunkIndex, llmClient llm.Client) AnalysisService {
	return &analysisService{
		chunkIndex: chunkIndex,
		llmClient:  llmClient,
	}
}

// Analyze 生成单家公司的投资分析。
func (s *analysisService) Analyze(ctx context.Context, company string) (*model.Analysis, error) {
	log.Infof("[AnalysisService] 开始分析公司, company: %s", company)

	// 1. 用固定领域查询在该公司范围内检索最相关的分块
	hits, err := s.chunkIndex.Search(ctx, domainQuery, company, analysisTopK)
	if err != nil {
		return nil, fmt.Errorf("analyze %q: retrieval: %w", company, err)
	}
	log.Infof("[AnalysisService] 检索完成, company: %s, 命中 %d 条", company, len(hits))

	// 2. 拼接检索上下文并截断到预算上限
	texts := make([]string, 0, len(hits))
	for _, hit := range hits {
		texts = append(texts, hit.TextContent)
	}
	retrieved := truncate(strings.Join(texts, "\n\n"), contextCharBudget)

	// 3. 构建固定模板 prompt 并调用生成服务
	prompt := fmt.Sprintf(analysisPromptTemplate, company, retrieved)
	analysis, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("analyze %q: generation: %w", company, err)
	}

	// 4. 证据取检索结果的前若干条原文（截断前）
	evidence := make([]string, 0, evidenceLimit)
	for i := 0; i < len(hits) && i < evidenceLimit; i++ {
		evidence = append(evidence, hits[i].TextContent)
	}

	log.Infof("[AnalysisService] 分析完成, company: %s, 生成长度: %d", company, len(analysis))
	return &model.Analysis{
		Company:  company,
		Analysis: analysis,
		Evidence: evidence,
	}, nil
}

// Compare 按给定顺序逐家分析并生成对比推荐。
// 任何一家分析失败都会立即中止，不产生部分对比结果。
func (s *analysisService) Compare(ctx context.Context, companies []string) (*model.Comparison, error) {
	if len(companies) < 2 {
		return nil, ErrNotEnoughCompanies
	}
	log.Infof("[AnalysisService] 开始对比分析, companies: %v", companies)

	// 1. 顺序执行单公司分析，快速失败
	analyses := make([]*model.Analysis, 0, len(companies))
	for _, company := range companies {
		analysis, err := s.Analyze(ctx, company)
		if err != nil {
			return nil, fmt.Errorf("compare: %w", err)
		}
		analyses = append(analyses, analysis)
	}

	// 2. 拼接各公司分析，逐块套用与单公司路径相同的截断上限
	blocks := make([]string, 0, len(analyses))
	for _, a := range analyses {
		blocks = append(blocks, fmt.Sprintf("%s:\n%s", a.Company, truncate(a.Analysis, contextCharBudget)))
	}

	// 3. 一次生成调用得到推荐结论
	prompt := fmt.Sprintf(comparisonPromptTemplate, strings.Join(blocks, "\n\n"))
	recommendation, err := s.llmClient.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("compare: generation: %w", err)
	}

	log.Infof("[AnalysisService] 对比分析完成, companies: %v", companies)
	return &model.Comparison{
		Analyses:       analyses,
		Recommendation: recommendation,
	}, nil
}

// truncate 按字符数截断文本。规范化后的文本是纯 ASCII，字节数即字符数。
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return text[:limit]
}
