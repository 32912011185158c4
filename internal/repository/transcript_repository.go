package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/shetashreya/earnings-call-analyzer/internal/model"
)

// TranscriptRepository 定义了对 transcript_upload 表的数据操作接口。
type TranscriptRepository interface {
	Create(upload *model.TranscriptUpload) error
	FindByID(id uint) (*model.TranscriptUpload, error)
	FindByCompany(company string) ([]*model.TranscriptUpload, error)
	FindAll() ([]*model.TranscriptUpload, error)
	MarkCompleted(id uint, chunkCount int) error
	MarkFailed(id uint, reason string) error
	DeleteByCompany(company string) error
}

type transcriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository 创建一个新的 TranscriptRepository 实例。
func NewTranscriptRepository(db *gorm.DB) TranscriptRepository {
	return &transcriptRepository{db: db}
}

// Create 新增一条上传记录。
func (r *transcriptRepository) Create(upload *model.TranscriptUpload) error {
	return r.db.Create(upload).Error
}

// FindByID 根据主键查找上传记录。
func (r *transcriptRepository) FindByID(id uint) (*model.TranscriptUpload, error) {
	var upload model.TranscriptUpload
	if err := r.db.First(&upload, id).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}

// FindByCompany 查找某公司的全部上传记录，按创建时间倒序。
func (r *transcriptRepository) FindByCompany(company string) ([]*model.TranscriptUpload, error) {
	var uploads []*model.TranscriptUpload
	err := r.db.Where("company = ?", company).Order("created_at DESC").Find(&uploads).Error
	return uploads, err
}

// FindAll 查找全部上传记录，按创建时间倒序。
func (r *transcriptRepository) FindAll() ([]*model.TranscriptUpload, error) {
	var uploads []*model.TranscriptUpload
	err := r.db.Order("created_at DESC").Find(&uploads).Error
	return uploads, err
}

// MarkCompleted 将上传记录标记为处理完成并记录分块数。
func (r *transcriptRepository) MarkCompleted(id uint, chunkCount int) error {
	now := time.Now()
	return r.db.Model(&model.TranscriptUpload{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       model.UploadStatusCompleted,
		"chunk_count":  chunkCount,
		"fail_reason":  "",
		"processed_at": &now,
	}).Error
}

// MarkFailed 将上传记录标记为处理失败并记录原因。
func (r *transcriptRepository) MarkFailed(id uint, reason string) error {
	now := time.Now()
	if len(reason) > 512 {
		reason = reason[:512]
	}
	return r.db.Model(&model.TranscriptUpload{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       model.UploadStatusFailed,
		"fail_reason":  reason,
		"processed_at": &now,
	}).Error
}

// DeleteByCompany 删除某公司的全部上传记录。
func (r *transcriptRepository) DeleteByCompany(company string) error {
	return r.db.Where("company = ?", company).Delete(&model.TranscriptUpload{}).Error
}
