package model

// ChunkDocument 代表存储在向量索引中的一条记录。
// VectorID 的格式固定为 "<company>_<chunkSeq>"，在整个索引内唯一；
// 重新摄入同一公司时相同序号的记录会被覆盖而不是重复累积。
type ChunkDocument struct {
	VectorID     string    `json:"vector_id"`
	Company      string    `json:"company"`
	ChunkSeq     int       `json:"chunk_seq"`
	TextContent  string    `json:"text_content"`
	Vector       []float32 `json:"vector"` // 文本内容的向量表示
	ModelVersion string    `json:"model_version"`
}

// ChunkHit 是一次相似度检索命中的结果，按相似度从高到低排序返回。
type ChunkHit struct {
	VectorID    string  `json:"vectorId"`
	Company     string  `json:"company"`
	ChunkSeq    int     `json:"chunkSeq"`
	TextContent string  `json:"textContent"`
	Score       float64 `json:"score"`
}
