package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
	"github.com/shetashreya/earnings-call-analyzer/internal/model"
	"github.com/shetashreya/earnings-call-analyzer/pkg/embedding"
	"github.com/shetashreya/earnings-call-analyzer/pkg/es"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
)

// esChunkIndex 是 ChunkIndex 的 Elasticsearch 实现，索引随 ES 持久化，
// 进程重启后数据仍然可查。
type esChunkIndex struct {
	embeddingClient embedding.Client
	esClient        *elasticsearch.Client
	indexName       string
	modelVersion    string
}

// NewESChunkIndex 创建一个基于 Elasticsearch 的向量索引实例。
func NewESChunkIndex(embeddingClient embedding.Client, esClient *elasticsearch.Client, esCfg config.ElasticsearchConfig, modelVersion string) ChunkIndex {
	return &esChunkIndex{
		embeddingClient: embeddingClient,
		esClient:        esClient,
		indexName:       esCfg.IndexName,
		modelVersion:    modelVersion,
	}
}

// Upsert 逐块向量化并写入 ES，DocumentID 即 "<company>_<i>"。
func (r *esChunkIndex) Upsert(ctx context.Context, company string, chunks []string) error {
	log.Infof("[ChunkIndex] 开始写入分块, company: %s, 分块数: %d", company, len(chunks))
	for i, chunk := range chunks {
		vector, err := r.embeddingClient.CreateEmbedding(ctx, chunk)
		if err != nil {
			log.Errorf("[ChunkIndex] 分块 %d 向量化失败, company: %s, error: %v", i, company, err)
			return fmt.Errorf("块 %d 向量化失败: %w", i, err)
		}

		doc := model.ChunkDocument{
			VectorID:     VectorID(company, i),
			Company:      company,
			ChunkSeq:     i,
			TextContent:  chunk,
			Vector:       vector,
			ModelVersion: r.modelVersion,
		}

		if err := es.IndexDocument(ctx, r.indexName, doc); err != nil {
			log.Errorf("[ChunkIndex] 索引分块 %d 到 Elasticsearch 失败, company: %s, error: %v", i, company, err)
			return &WriteError{Company: company, ChunkSeq: i, Err: err}
		}
	}
	log.Infof("[ChunkIndex] 所有分块写入完成, company: %s", company)
	return nil
}

// Search 向量化查询文本后执行 KNN 检索，可选按公司过滤。
// ES 按相似度得分降序返回，即余弦距离升序。
func (r *esChunkIndex) Search(ctx context.Context, query string, company string, topK int) ([]model.ChunkHit, error) {
	queryVector, err := r.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}

	knn := map[string]interface{}{
		"field":          "vector",
		"query_vector":   queryVector,
		"k":              topK,
		"num_candidates": topK * 10,
	}
	if company != "" {
		knn["filter"] = map[string]interface{}{
			"term": map[string]interface{}{"company": company},
		}
	}
	esQuery := map[string]interface{}{
		"knn":  knn,
		"size": topK,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, &QueryError{Op: "search", Err: err}
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.indexName),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, &QueryError{Op: "search", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[ChunkIndex] Elasticsearch 检索返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, &QueryError{Op: "search", Err: fmt.Errorf("elasticsearch returned an error: %s, body: %s", res.Status(), string(bodyBytes))}
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.ChunkDocument `json:"_source"`
				Score  float64             `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, &QueryError{Op: "search", Err: fmt.Errorf("failed to decode es response: %w", err)}
	}

	hits := make([]model.ChunkHit, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		hits = append(hits, model.ChunkHit{
			VectorID:    hit.Source.VectorID,
			Company:     hit.Source.Company,
			ChunkSeq:    hit.Source.ChunkSeq,
			TextContent: hit.Source.TextContent,
			Score:       hit.Score,
		})
	}
	return hits, nil
}

// ListCompanies 通过 terms 聚合扫描元数据得到公司集合，按名称升序。
// 公司的存在完全由索引记录推导，没有独立的公司表。
func (r *esChunkIndex) ListCompanies(ctx context.Context) ([]string, error) {
	aggQuery := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"companies": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "company",
					"size":  10000,
					"order": map[string]interface{}{"_key": "asc"},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(aggQuery); err != nil {
		return nil, &QueryError{Op: "list_companies", Err: err}
	}

	res, err := r.esClient.Search(
		r.esClient.Search.WithContext(ctx),
		r.esClient.Search.WithIndex(r.indexName),
		r.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, &QueryError{Op: "list_companies", Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		return nil, &QueryError{Op: "list_companies", Err: fmt.Errorf("elasticsearch returned an error: %s, body: %s", res.Status(), string(bodyBytes))}
	}

	var aggResponse struct {
		Aggregations struct {
			Companies struct {
				Buckets []struct {
					Key string `json:"key"`
				} `json:"buckets"`
			} `json:"companies"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&aggResponse); err != nil {
		return nil, &QueryError{Op: "list_companies", Err: fmt.Errorf("failed to decode es response: %w", err)}
	}

	companies := make([]string, 0, len(aggResponse.Aggregations.Companies.Buckets))
	for _, bucket := range aggResponse.Aggregations.Companies.Buckets {
		companies = append(companies, bucket.Key)
	}
	return companies, nil
}

// DeleteCompany 按公司过滤删除全部记录，公司不存在时删除 0 条，不算错误。
func (r *esChunkIndex) DeleteCompany(ctx context.Context, company string) error {
	deleteQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"company": company},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(deleteQuery); err != nil {
		return &WriteError{Company: company, ChunkSeq: -1, Err: err}
	}

	res, err := r.esClient.DeleteByQuery(
		[]string{r.indexName},
		&buf,
		r.esClient.DeleteByQuery.WithContext(ctx),
		r.esClient.DeleteByQuery.WithRefresh(true),
	)
	if err != nil {
		return &WriteError{Company: company, ChunkSeq: -1, Err: err}
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		return &WriteError{Company: company, ChunkSeq: -1, Err: errors.New(string(bodyBytes))}
	}

	log.Infof("[ChunkIndex] 已删除公司的全部索引记录, company: %s", company)
	return nil
}
