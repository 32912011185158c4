// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shetashreya/earnings-call-analyzer/internal/service"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
)

// TranscriptHandler 负责处理录音稿上传和入库相关的 API 请求。
type TranscriptHandler struct {
	transcriptService service.TranscriptService
	ingestService     service.IngestService
}

// NewTranscriptHandler 创建一个新的 TranscriptHandler 实例。
func NewTranscriptHandler(transcriptService service.TranscriptService, ingestService service.IngestService) *TranscriptHandler {
	return &TranscriptHandler{
		transcriptService: transcriptService,
		ingestService:     ingestService,
	}
}

// Upload 处理录音稿文件上传，走异步处理链路。
func (h *TranscriptHandler) Upload(c *gin.Context) {
	company := c.PostForm("company")
	if company == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 company 参数"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未能获取上传的文件"})
		return
	}
	defer file.Close()

	upload, err := h.transcriptService.Upload(c.Request.Context(), company, header.Filename, file, header.Size)
	if err != nil {
		log.Error("[TranscriptHandler] 文件上传失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "文件上传失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "上传成功，处理任务已发送到 Kafka",
		"data": gin.H{
			"upload_id": upload.ID,
			"company":   upload.Company,
			"file_name": upload.FileName,
		},
	})
}

// IngestTextRequest 定义了纯文本同步入库 API 的请求体结构。
type IngestTextRequest struct {
	Company string `json:"company" binding:"required"`
	Text    string `json:"text" binding:"required"`
}

// IngestText 处理纯文本同步入库请求，直接返回写入的分块数。
func (h *TranscriptHandler) IngestText(c *gin.Context) {
	var req IngestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求负载"})
		return
	}
	log.Infof("[TranscriptHandler] 收到文本入库请求, company: %s, 文本长度: %d", req.Company, len(req.Text))

	chunkCount, err := h.ingestService.Ingest(c.Request.Context(), req.Company, req.Text)
	if err != nil {
		log.Errorf("[TranscriptHandler] 文本入库失败, company: %s, error: %v", req.Company, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "文本入库失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data": gin.H{
			"company":     req.Company,
			"chunk_count": chunkCount,
		},
	})
}

// ListUploads 查询上传记录，支持按 company 过滤。
func (h *TranscriptHandler) ListUploads(c *gin.Context) {
	company := c.Query("company")

	uploads, err := h.transcriptService.ListUploads(company)
	if err != nil {
		log.Error("[TranscriptHandler] 查询上传记录失败", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询上传记录失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": 200, "data": uploads, "message": "success"})
}
