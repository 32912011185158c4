package model

// Analysis 是单家公司的分析结果，按请求生成，不做持久化。
// Analysis 字段为模型原始输出，调用方直接渲染；Evidence 为支撑分析的
// 至多 3 条检索片段原文（截断前）。
type Analysis struct {
	Company  string   `json:"company"`
	Analysis string   `json:"analysis"`
	Evidence []string `json:"evidence"`
}

// Comparison 是多家公司的对比结果，Analyses 保持调用方给出的顺序。
type Comparison struct {
	Analyses       []*Analysis `json:"analyses"`
	Recommendation string      `json:"recommendation"`
}
