// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// TranscriptProcessingTask represents the data structure for a transcript processing job.
type TranscriptProcessingTask struct {
	UploadID   uint   `json:"upload_id"`
	Company    string `json:"company"`
	ObjectName string `json:"object_name"`
	FileName   string `json:"file_name"`
}
