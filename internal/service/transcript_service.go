package service

import (
	"context"
	"fmt"
	"io"

	"github.com/shetashreya/earnings-call-analyzer/internal/config"
	"github.com/shetashreya/earnings-call-analyzer/internal/model"
	"github.com/shetashreya/earnings-call-analyzer/internal/repository"
	"github.com/shetashreya/earnings-call-analyzer/pkg/kafka"
	"github.com/shetashreya/earnings-call-analyzer/pkg/log"
	"github.com/shetashreya/earnings-call-analyzer/pkg/storage"
	"github.com/shetashreya/earnings-call-analyzer/pkg/tasks"
)

// TranscriptService 负责财报电话会议录音稿文件的接收与生命周期管理。
// 上传走异步链路：文件先落对象存储并登记数据库，再投递 Kafka 任务
// 由消费者完成抽取和入索引。
type TranscriptService interface {
	Upload(ctx context.Context, company, fileName string, reader io.Reader, size int64) (*model.TranscriptUpload, error)
	ListUploads(company string) ([]*model.TranscriptUpload, error)
	DeleteCompany(ctx context.Context, company string) error
}

type transcriptService struct {
	transcriptRepo repository.TranscriptRepository
	chunkIndex     repository.ChunkIndex
	minioCfg       config.MinIOConfig
}

// NewTranscriptService 创建一个新的 TranscriptService 实例。
func NewTranscriptService(transcriptRepo repository.TranscriptRepository, chunkIndex repository.ChunkIndex, minioCfg config.MinIOConfig) TranscriptService {
	return &transcriptService{
		transcriptRepo: transcriptRepo,
		chunkIndex:     chunkIndex,
		minioCfg:       minioCfg,
	}
}

// Upload 接收上传文件并触发异步处理流程。
func (s *transcriptService) Upload(ctx context.Context, company, fileName string, reader io.Reader, size int64) (*model.TranscriptUpload, error) {
	log.Infof("[TranscriptService] 1. 开始处理文件上传, company: %s, file: %s, size: %d", company, fileName, size)

	// 1. 上传原始文件到 MinIO
	objectName, err := storage.PutTranscript(ctx, s.minioCfg.BucketName, company, fileName, reader, size)
	if err != nil {
		return nil, fmt.Errorf("upload %q/%q: store object: %w", company, fileName, err)
	}
	log.Infof("[TranscriptService] 2. 文件已存入对象存储, object: %s", objectName)

	// 2. 在数据库登记待处理记录
	upload := &model.TranscriptUpload{
		Company:    company,
		FileName:   fileName,
		ObjectName: objectName,
		TotalSize:  size,
		Status:     model.UploadStatusPending,
	}
	if err := s.transcriptRepo.Create(upload); err != nil {
		return nil, fmt.Errorf("upload %q/%q: create record: %w", company, fileName, err)
	}
	log.Infof("[TranscriptService] 3. 上传记录已创建, upload_id: %d", upload.ID)

	// 3. 投递异步处理任务
	task := tasks.TranscriptProcessingTask{
		UploadID:   upload.ID,
		Company:    company,
		ObjectName: objectName,
		FileName:   fileName,
	}
	if err := kafka.ProduceTranscriptTask(task); err != nil {
		// 任务没能进队列，记录就永远停在待处理，直接标记失败
		reason := fmt.Sprintf("produce task: %v", err)
		if markErr := s.transcriptRepo.MarkFailed(upload.ID, reason); markErr != nil {
			log.Error("[TranscriptService] 标记上传失败状态时出错", markErr)
		}
		return nil, fmt.Errorf("upload %q/%q: produce task: %w", company, fileName, err)
	}

	log.Infof("[TranscriptService] 4. 处理任务已投递, upload_id: %d", upload.ID)
	return upload, nil
}

// ListUploads 查询上传记录，company 为空时返回全部。
func (s *transcriptService) ListUploads(company string) ([]*model.TranscriptUpload, error) {
	if company == "" {
		return s.transcriptRepo.FindAll()
	}
	return s.transcriptRepo.FindByCompany(company)
}

// DeleteCompany 删除一家公司的全部数据：向量索引、对象存储文件和上传记录。
// 索引删除是强一致步骤，失败即中止；对象清理尽力而为，失败只记日志。
func (s *transcriptService) DeleteCompany(ctx context.Context, company string) error {
	log.Infof("[TranscriptService] 开始删除公司数据, company: %s", company)

	if err := s.chunkIndex.DeleteCompany(ctx, company); err != nil {
		return fmt.Errorf("delete %q: index: %w", company, err)
	}

	uploads, err := s.transcriptRepo.FindByCompany(company)
	if err != nil {
		return fmt.Errorf("delete %q: list uploads: %w", company, err)
	}
	for _, upload := range uploads {
		if err := storage.RemoveTranscript(ctx, s.minioCfg.BucketName, upload.ObjectName); err != nil {
			log.Errorf("[TranscriptService] 删除对象失败, object: %s, error: %v", upload.ObjectName, err)
		}
	}

	if err := s.transcriptRepo.DeleteByCompany(company); err != nil {
		return fmt.Errorf("delete %q: records: %w", company, err)
	}

	log.Infof("[TranscriptService] 公司数据删除完成, company: %s, 清理上传记录 %d 条", company, len(uploads))
	return nil
}
