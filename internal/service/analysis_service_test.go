package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shetashreya/earnings-call-analyzer/internal/model"
)

// fakeChunkIndex 按公司返回预置命中，并记录检索调用。
type fakeChunkIndex struct {
	hitsByCompany map[string][]model.ChunkHit
	searchErr     error
	queries       []string
	companies     []string
}

func (f *fakeChunkIndex) Upsert(_ context.Context, _ string, _ []string) error { return nil }

func (f *fakeChunkIndex) Search(_ context.Context, query string, company string, _ int) ([]model.ChunkHit, error) {
	f.queries = append(f.queries, query)
	f.companies = append(f.companies, company)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.hitsByCompany[company], nil
}

func (f *fakeChunkIndex) ListCompanies(_ context.Context) ([]string, error) { return nil, nil }

func (f *fakeChunkIndex) DeleteCompany(_ context.Context, _ string) error { return nil }

// fakeLLM 记录收到的 prompt 并返回预置文本。
type fakeLLM struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func hitsFor(company string, texts ...string) []model.ChunkHit {
	hits := make([]model.ChunkHit, 0, len(texts))
	for i, text := range texts {
		hits = append(hits, model.ChunkHit{
			VectorID:    fmt.Sprintf("%s_%d", company, i),
			Company:     company,
			ChunkSeq:    i,
			TextContent: text,
			Score:       1.0 - float64(i)*0.1,
		})
	}
	return hits
}

func TestAnalyzeBuildsPromptFromRetrievedContext(t *testing.T) {
	index := &fakeChunkIndex{hitsByCompany: map[string][]model.ChunkHit{
		"Acme": hitsFor("Acme", "revenue grew 12 percent", "margins expanded"),
	}}
	llmClient := &fakeLLM{response: "INVESTABLE: Yes\nSECTOR: Technology\nSUMMARY: solid quarter"}
	svc := NewAnalysisService(index, llmClient)

	analysis, err := svc.Analyze(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", analysis.Company)
	assert.Equal(t, llmClient.response, analysis.Analysis)

	// 检索固定领域查询，且范围限定在目标公司
	require.Len(t, index.queries, 1)
	assert.Equal(t, "financial performance revenue growth profitability outlook risks", index.queries[0])
	assert.Equal(t, "Acme", index.companies[0])

	// prompt 含公司名、检索上下文和全部响应字段标签
	require.Len(t, llmClient.prompts, 1)
	prompt := llmClient.prompts[0]
	assert.Contains(t, prompt, "for Acme")
	assert.Contains(t, prompt, "revenue grew 12 percent\n\nmargins expanded")
	assert.Contains(t, prompt, "INVESTABLE:")
	assert.Contains(t, prompt, "SECTOR:")
	assert.Contains(t, prompt, "SUMMARY:")
	assert.Contains(t, prompt, "REASONS:")
}

func TestAnalyzeEvidenceCappedAtThree(t *testing.T) {
	index := &fakeChunkIndex{hitsByCompany: map[string][]model.ChunkHit{
		"Acme": hitsFor("Acme", "chunk one", "chunk two", "chunk three", "chunk four", "chunk five"),
	}}
	svc := NewAnalysisService(index, &fakeLLM{response: "ok"})

	analysis, err := svc.Analyze(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Equal(t, []string{"chunk one", "chunk two", "chunk three"}, analysis.Evidence)
}

func TestAnalyzeTruncatesContext(t *testing.T) {
	long := strings.Repeat("x", 5000)
	index := &fakeChunkIndex{hitsByCompany: map[string][]model.ChunkHit{
		"Acme": hitsFor("Acme", long),
	}}
	llmClient := &fakeLLM{response: "ok"}
	svc := NewAnalysisService(index, llmClient)

	analysis, err := svc.Analyze(context.Background(), "Acme")
	require.NoError(t, err)

	prompt := llmClient.prompts[0]
	assert.Contains(t, prompt, strings.Repeat("x", 4000))
	assert.NotContains(t, prompt, strings.Repeat("x", 4001))

	// 证据保留截断前的原文
	assert.Equal(t, long, analysis.Evidence[0])
}

func TestAnalyzeEmptyRetrievalStillGenerates(t *testing.T) {
	index := &fakeChunkIndex{hitsByCompany: map[string][]model.ChunkHit{}}
	llmClient := &fakeLLM{response: "INVESTABLE: Maybe"}
	svc := NewAnalysisService(index, llmClient)

	analysis, err := svc.Analyze(context.Background(), "Unknown")
	require.NoError(t, err)
	assert.Equal(t, "INVESTABLE: Maybe", analysis.Analysis)
	assert.Empty(t, analysis.Evidence)
	require.Len(t, llmClient.prompts, 1)
}

func TestAnalyzeRetrievalFailure(t *testing.T) {
	index := &fakeChunkIndex{searchErr: errors.New("index unavailable")}
	llmClient := &fakeLLM{response: "never"}
	svc := NewAnalysisService(index, llmClient)

	_, err := svc.Analyze(context.Background(), "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Acme")
	assert.Contains(t, err.Error(), "retrieval")
	assert.Empty(t, llmClient.prompts)
}

func TestAnalyzeGenerationFailure(t *testing.T) {
	index := &fakeChunkIndex{hitsByCompany: map[string][]model.ChunkHit{
		"Acme": hitsFor("Acme", "some context"),
	}}
	svc := NewAnalysisService(index, &fakeLLM{err: errors.New("all backends failed")})

	_, err := svc.Analyze(context.Background(), "Acme")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generation")
}

func TestCompareRequiresTwoCompanies(t *testing.T) {
	svc := NewAnalysisService(&fakeChunkIndex{}, &fakeLLM{})

	for _, companies := range [][]string{nil, {}, {"Acme"}} {
		_, err := svc.Compare(context.Background(), companies)
		require.ErrorIs(t, err, ErrNotEnoughCompanies)
	}
}

func TestCompareCombinesAnalyses(t *testing.T) {
	index := &fakeChunkIndex{hitsByCompany: map[string][]model.ChunkHit{
		"Acme":   hitsFor("Acme", "acme context"),
		"Globex": hitsFor("Globex", "globex context"),
	}}
	llmClient := &fakeLLM{response: "RECOMMENDATION: Acme"}
	svc := NewAnalysisService(index, llmClient)

	comparison, err := svc.Compare(context.Background(), []string{"Acme", "Globex"})
	require.NoError(t, err)
	require.Len(t, comparison.Analyses, 2)
	assert.Equal(t, "Acme", comparison.Analyses[0].Company)
	assert.Equal(t, "Globex", comparison.Analyses[1].Company)
	assert.Equal(t, "RECOMMENDATION: Acme", comparison.Recommendation)

	// 两次单公司生成加一次对比生成
	require.Len(t, llmClient.prompts, 3)
	comparePrompt := llmClient.prompts[2]
	assert.Contains(t, comparePrompt, "Acme:\n")
	assert.Contains(t, comparePrompt, "Globex:\n")
	assert.Contains(t, comparePrompt, "RECOMMENDATION:")
	assert.Contains(t, comparePrompt, "REASONING:")
	assert.Contains(t, comparePrompt, "COMPARISON:")
}

func TestCompareFailsFastOnFirstCompany(t *testing.T) {
	index := &fakeChunkIndex{searchErr: errors.New("index unavailable")}
	llmClient := &fakeLLM{response: "never"}
	svc := NewAnalysisService(index, llmClient)

	_, err := svc.Compare(context.Background(), []string{"Acme", "Globex"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Acme")

	// 第一家失败后不再分析第二家，也不做对比生成
	assert.Equal(t, []string{"Acme"}, index.companies)
	assert.Empty(t, llmClient.prompts)
}
