// Package model 定义了与数据库表对应的 Go 结构体以及各层之间传递的领域结构。
package model

import "time"

// 上传记录的处理状态。
const (
	UploadStatusPending   = 0
	UploadStatusCompleted = 1
	UploadStatusFailed    = 2
)

// TranscriptUpload 定义了 transcript_upload 表的 ORM 模型。
// 它记录了每份上传的财报电话会议纪要的元数据和处理状态。
type TranscriptUpload struct {
	ID          uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	Company     string     `gorm:"type:varchar(128);not null;index" json:"company"`
	FileName    string     `gorm:"type:varchar(255);not null" json:"fileName"`
	ObjectName  string     `gorm:"type:varchar(255);not null" json:"objectName"`
	TotalSize   int64      `gorm:"not null" json:"totalSize"`
	Status      int        `gorm:"type:tinyint;not null;default:0" json:"status"` // 0: pending, 1: completed, 2: failed
	ChunkCount  int        `gorm:"not null;default:0" json:"chunkCount"`
	FailReason  string     `gorm:"type:varchar(512)" json:"failReason,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	ProcessedAt *time.Time `gorm:"default:null" json:"processedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (TranscriptUpload) TableName() string {
	return "transcript_upload"
}
