package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shetashreya/earnings-call-analyzer/internal/service"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
)

// AnalysisHandler 负责投资分析和公司数据管理相关的 API 请求。
type AnalysisHandler struct {
	analysisService   service.AnalysisService
	ingestService     service.IngestService
	transcriptService service.TranscriptService
}

// NewAnalysisHandler 创建一个新的 AnalysisHandler 实例。
func NewAnalysisHandler(analysisService service.AnalysisService, ingestService service.IngestService, transcriptService service.TranscriptService) *AnalysisHandler {
	return &AnalysisHandler{
		analysisService:   analysisService,
		ingestService:     ingestService,
		transcriptService: transcriptService,
	}
}

// Analyze 处理单公司投资分析请求。
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	company := c.Param("company")
	log.Infof("[AnalysisHandler] 收到分析请求, company: %s", company)

	analysis, err := h.analysisService.Analyze(c.Request.Context(), company)
	if err != nil {
		log.Errorf("[AnalysisHandler] 分析失败, company: %s, error: %v", company, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "分析失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": analysis, "message": "success"})
}

// CompareRequest 定义了多公司对比 API 的请求体结构。
type CompareRequest struct {
	Companies []string `json:"companies" binding:"required"`
}

// Compare 处理多公司对比分析请求。
func (h *AnalysisHandler) Compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	log.Infof("[AnalysisHandler] 收到对比请求, companies: %v", req.Companies)

	comparison, err := h.analysisService.Compare(c.Request.Context(), req.Companies)
	if err != nil {
		if errors.Is(err, service.ErrNotEnoughCompanies) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "对比至少需要两家公司"})
			return
		}
		log.Errorf("[AnalysisHandler] 对比失败, companies: %v, error: %v", req.Companies, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "对比分析失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": comparison, "message": "success"})
}

// ListCompanies 返回索引中已有数据的公司列表。
func (h *AnalysisHandler) ListCompanies(c *gin.Context) {
	companies, err := h.ingestService.ListCompanies(c.Request.Context())
	if err != nil {
		log.Error("[AnalysisHandler] 查询公司列表失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询公司列表失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": companies, "message": "success"})
}

// DeleteCompany 删除一家公司的全部数据。
func (h *AnalysisHandler) DeleteCompany(c *gin.Context) {
	company := c.Param("company")
	log.Infof("[AnalysisHandler] 收到删除公司请求, company: %s", company)

	if err := h.transcriptService.DeleteCompany(c.Request.Context(), company); err != nil {
		log.Errorf("[AnalysisHandler] 删除公司数据失败, company: %s, error: %v", company, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除公司数据失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"company": company}, "message": "success"})
}
