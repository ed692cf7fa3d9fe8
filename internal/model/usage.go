package model

import (
	"time"
)

// UsageRecord 配额使用流水：每次上传成功写入一条，只增不删。
// 删除媒体不回退配额（防止上传-删除循环刷配额），窗口内计数只会单调增加。
type UsageRecord struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	UserID     int64     `gorm:"not null;index:idx_usage_user_occurred" json:"user_id"`
	Category   string    `gorm:"size:10;not null" json:"category"` // video, image
	OccurredAt time.Time `gorm:"not null;index:idx_usage_user_occurred" json:"occurred_at"`
}

func (UsageRecord) TableName() string {
	return "usage_records"
}
