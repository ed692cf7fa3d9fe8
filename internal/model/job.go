package model

import (
	"time"
)

// 任务状态
const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// DetectionJob 一次检测任务（对应一次媒体上传）
type DetectionJob struct {
	ID             int64      `gorm:"primaryKey" json:"id"`
	MediaID        int64      `gorm:"not null;index" json:"media_id"`
	UserID         int64      `gorm:"not null;index" json:"user_id"`
	Status         string     `gorm:"size:20;default:queued;index" json:"status"`
	CurrentStep    string     `gorm:"size:100" json:"current_step,omitempty"`
	ErrorMessage   string     `gorm:"type:text" json:"error_message,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ElapsedSeconds int        `json:"elapsed_seconds,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (DetectionJob) TableName() string {
	return "detection_jobs"
}
