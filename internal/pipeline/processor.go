package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
	"github.com/shetashreya/earnings-call-analyzer/internal/repository"
	"github.com/shetashreya/earnings-call-analyzer/internal/service"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
	"github.com/shetashreya/earnings-call-analyzer/pkg/storage"
	"github.com/shetashreya/earnings-call-analyzer/pkg/tasks"
	"github.com/shetashreya/earnings-call-analyzer/pkg/tika"
)

// Processor 是 Kafka 消费者侧的录音稿处理器，串起
// 对象下载、文本抽取和入索引三个阶段，并把结果回写上传记录。
type Processor struct {
	tikaClient     *tika.Client
	ingestService  service.IngestService
	transcriptRepo repository.TranscriptRepository
	minioCfg       config.MinIOConfig
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(tikaClient *tika.Client, ingestService service.IngestService, transcriptRepo repository.TranscriptRepository, minioCfg config.MinIOConfig) *Processor {
	return &Processor{
		tikaClient:     tikaClient,
		ingestService:  ingestService,
		transcriptRepo: transcriptRepo,
		minioCfg:       minioCfg,
	}
}

// Process 执行单个录音稿处理任务。
// 返回 error 时由消费端决定重试，成功或永久失败都会回写记录状态。
func (p *Processor) Process(ctx context.Context, task tasks.TranscriptProcessingTask) error {
	log.Infof("[Processor] 1. 开始处理任务, upload_id: %d, company: %s, object: %s", task.UploadID, task.Company, task.ObjectName)

	// 1. 从 MinIO 下载原始文件
	object, err := storage.GetTranscript(ctx, p.minioCfg.BucketName, task.ObjectName)
	if err != nil {
		return p.fail(task, fmt.Errorf("get object %q: %w", task.ObjectName, err))
	}
	defer object.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, object); err != nil {
		return p.fail(task, fmt.Errorf("read object %q: %w", task.ObjectName, err))
	}
	if buf.Len() == 0 {
		return p.fail(task, fmt.Errorf("object %q is empty", task.ObjectName))
	}
	log.Infof("[Processor] 2. 文件下载完成, upload_id: %d, size: %d", task.UploadID, buf.Len())

	// 2. 通过 Tika 抽取纯文本
	text, err := p.tikaClient.ExtractText(&buf, task.FileName)
	if err != nil {
		return p.fail(task, fmt.Errorf("extract text: %w", err))
	}
	log.Infof("[Processor] 3. 文本抽取完成, upload_id: %d, 文本长度: %d", task.UploadID, len(text))

	// 3. 切分、向量化并写入索引
	chunkCount, err := p.ingestService.Ingest(ctx, task.Company, text)
	if err != nil {
		return p.fail(task, fmt.Errorf("ingest: %w", err))
	}

	if err := p.transcriptRepo.MarkCompleted(task.UploadID, chunkCount); err != nil {
		return p.fail(task, fmt.Errorf("mark completed: %w", err))
	}

	log.Infof("[Processor] 4. 任务处理完成, upload_id: %d, 分块数: %d", task.UploadID, chunkCount)
	return nil
}

// fail 把失败原因回写到上传记录后原样返回错误。
func (p *Processor) fail(task tasks.TranscriptProcessingTask, err error) error {
	log.Errorf("[Processor] 任务处理失败, upload_id: %d, error: %v", task.UploadID, err)
	if markErr := p.transcriptRepo.MarkFailed(task.UploadID, err.Error()); markErr != nil {
		log.Error("[Processor] 回写失败状态出错", markErr)
	}
	return err
}
