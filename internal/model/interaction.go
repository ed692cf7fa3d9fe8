package model

import (
	"time"
)

// 互动类型
const (
	InteractionLike = "like"
	InteractionView = "view"
)

// Interaction 公开展示页上的用户互动，(user, media, type) 唯一防止重复点赞
type Interaction struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"not null;uniqueIndex:idx_user_media_type" json:"user_id"`
	MediaID   int64     `gorm:"not null;uniqueIndex:idx_user_media_type;index" json:"media_id"`
	Type      string    `gorm:"size:20;not null;uniqueIndex:idx_user_media_type" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func (Interaction) TableName() string {
	return "interactions"
}
