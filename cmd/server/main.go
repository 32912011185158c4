// Package main 是应用程序的入口点。
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shetashreya/earnings-call-analyzer/internal/config"
	"github.com/shetashreya/earnings-call-analyzer/internal/handler"
	"github.com/shetashreya/earnings-call-analyzer/internal/middleware"
	"github.com/shetashreya/earnings-call-analyzer/internal/pipeline"
	"github.com/shetashreya/earnings-call-analyzer/internal/repository"
	"github.com/shetashreya/earnings-call-analyzer/internal/service"
	"github.com/shetashreya/earnings-call-analyzer/pkg/database"
	"github.com/shetashreya/earnings-call-analyzer/pkg/embedding"
	"github.com/shetashreya/earnings-call-analyzer/pkg/es"
	"github.com/shetashreya/earnings-call-analyzer/pkg/kafka"
	"github.com/shetashreya/earnings-call-analyzer/pkg/llm"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
	"github.com/shetashreya/earnings-call-analyzer/pkg/storage"
	"github.com/shetashreya/earnings-call-analyzer/pkg/tika"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库、对象存储和消息队列
	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)

	// 4. 初始化向量索引后端
	embeddingClient := embedding.NewClient(cfg.Embedding)
	var chunkIndex repository.ChunkIndex
	switch cfg.Index.Backend {
	case "memory":
		chunkIndex = repository.NewMemoryChunkIndex(embeddingClient)
		log.Info("使用内存向量索引后端")
	default:
		if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
			log.Fatalf("es 初始化失败: %s", err)
		}
		chunkIndex = repository.NewESChunkIndex(embeddingClient, es.ESClient, cfg.Elasticsearch, cfg.Embedding.Model)
		log.Info("使用 Elasticsearch 向量索引后端")
	}

	// 5. 初始化 Repository 和 Service (依赖注入)
	transcriptRepo := repository.NewTranscriptRepository(database.DB)
	tikaClient := tika.NewClient(cfg.Tika)
	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("llm 初始化失败: %s", err)
	}
	ingestService := service.NewIngestService(chunkIndex, cfg.Chunking)
	analysisService := service.NewAnalysisService(chunkIndex, llmClient)
	transcriptService := service.NewTranscriptService(transcriptRepo, chunkIndex, cfg.MinIO)

	// 6. 初始化录音稿处理管道 (Processor)
	processor := pipeline.NewProcessor(tikaClient, ingestService, transcriptRepo, cfg.MinIO)

	// 7. 启动后台 Kafka 消费者
	go kafka.StartConsumer(cfg.Kafka, processor)

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())

	// 9. 注册路由
	transcriptHandler := handler.NewTranscriptHandler(transcriptService, ingestService)
	analysisHandler := handler.NewAnalysisHandler(analysisService, ingestService, transcriptService)

	apiV1 := r.Group("/api/v1")
	{
		transcripts := apiV1.Group("/transcripts")
		{
			transcripts.POST("", transcriptHandler.Upload)
			transcripts.POST("/text", transcriptHandler.IngestText)
			transcripts.GET("", transcriptHandler.ListUploads)
		}

		analysis := apiV1.Group("/analysis")
		{
			analysis.POST("/compare", analysisHandler.Compare)
			analysis.POST("/:company", analysisHandler.Analyze)
		}

		companies := apiV1.Group("/companies")
		{
			companies.GET("", analysisHandler.ListCompanies)
			companies.DELETE("/:company", analysisHandler.DeleteCompany)
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP 服务器关闭失败: %v", err)
	}

	log.Info("服务已优雅关闭")
}
