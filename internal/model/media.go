package model

import (
	"time"
)

// 媒体类别
const (
	CategoryVideo = "video"
	CategoryImage = "image"
)

// 检测状态
const (
	MediaStatusPending   = "pending"
	MediaStatusAnalyzing = "analyzing"
	MediaStatusCompleted = "completed"
	MediaStatusFailed    = "failed"
)

// 检测结论
const (
	VerdictAI      = "ai"
	VerdictHuman   = "human"
	VerdictUnknown = "unknown"
)

type MediaUpload struct {
	ID           int64      `gorm:"primaryKey" json:"id"`
	UserID       int64      `gorm:"not null;index" json:"user_id"`
	Category     string     `gorm:"size:10;not null;index" json:"category"` // video, image
	FileName     string     `gorm:"size:255;not null" json:"file_name"`
	ObjectKey    string     `gorm:"size:500;not null" json:"-"`
	URL          string     `gorm:"size:500" json:"url,omitempty"`
	Size         int64      `json:"size"`
	ContentType  string     `gorm:"size:100" json:"content_type"`
	Status       string     `gorm:"size:20;default:pending;index" json:"status"`
	Verdict      string     `gorm:"size:10" json:"verdict,omitempty"` // ai, human, unknown
	Confidence   float64    `json:"confidence,omitempty"`
	ErrorMessage string     `gorm:"type:text" json:"error_message,omitempty"`
	IsPublic     bool       `gorm:"default:false;index" json:"is_public"`
	SharedAt     *time.Time `gorm:"index" json:"shared_at,omitempty"`
	ShareTitle   string     `gorm:"size:200" json:"share_title,omitempty"`
	ViewCount    int        `gorm:"default:0" json:"view_count"`
	LikeCount    int        `gorm:"default:0" json:"like_count"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// 关联
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (MediaUpload) TableName() string {
	return "media_uploads"
}
