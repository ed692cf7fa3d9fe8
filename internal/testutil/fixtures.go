package testutil

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/model"
)

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	email := fmt.Sprintf("test_%d@example.com", time.Now().UnixNano())
	passwordHash := "$2a$10$abcdefghijklmnopqrstuvwxyz123456" // bcrypt hash placeholder
	user := &model.User{
		Username:     fmt.Sprintf("testuser_%d", time.Now().UnixNano()%1000000),
		Email:        &email,
		PasswordHash: &passwordHash,
	}

	for _, opt := range opts {
		opt(user)
	}

	// gorm 只在 CreatedAt 为零值时才自动填充，WithCreatedAt 指定的时间直接落库
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithCreatedAt 设置账号创建时间（配额窗口的锚点）
func WithCreatedAt(createdAt time.Time) func(*model.User) {
	return func(u *model.User) {
		u.CreatedAt = createdAt
	}
}

// TestMedia 创建测试媒体
func TestMedia(t *testing.T, db *gorm.DB, userID int64, opts ...func(*model.MediaUpload)) *model.MediaUpload {
	t.Helper()

	media := &model.MediaUpload{
		UserID:      userID,
		Category:    model.CategoryImage,
		FileName:    fmt.Sprintf("test_%d.png", time.Now().UnixNano()%1000000),
		ObjectKey:   fmt.Sprintf("images/%d/test.png", userID),
		Size:        1024,
		ContentType: "image/png",
		Status:      model.MediaStatusCompleted,
		Verdict:     model.VerdictHuman,
		Confidence:  0.8,
	}

	for _, opt := range opts {
		opt(media)
	}

	if err := db.Create(media).Error; err != nil {
		t.Fatalf("Failed to create test media: %v", err)
	}

	return media
}

// WithCategory 设置媒体类别
func WithCategory(category string) func(*model.MediaUpload) {
	return func(m *model.MediaUpload) {
		m.Category = category
	}
}

// WithStatus 设置检测状态
func WithStatus(status string) func(*model.MediaUpload) {
	return func(m *model.MediaUpload) {
		m.Status = status
	}
}

// WithPublic 分享到公开展示页
func WithPublic() func(*model.MediaUpload) {
	return func(m *model.MediaUpload) {
		m.IsPublic = true
		now := time.Now()
		m.SharedAt = &now
		m.ShareTitle = m.FileName
	}
}

// TestUsageRecord 创建一条配额使用流水
func TestUsageRecord(t *testing.T, db *gorm.DB, userID int64, category string, occurredAt time.Time) *model.UsageRecord {
	t.Helper()

	record := &model.UsageRecord{
		UserID:     userID,
		Category:   category,
		OccurredAt: occurredAt,
	}

	if err := db.Create(record).Error; err != nil {
		t.Fatalf("Failed to create test usage record: %v", err)
	}

	return record
}

// TestJob 创建测试检测任务
func TestJob(t *testing.T, db *gorm.DB, userID, mediaID int64, status string) *model.DetectionJob {
	t.Helper()

	job := &model.DetectionJob{
		MediaID: mediaID,
		UserID:  userID,
		Status:  status,
	}

	if err := db.Create(job).Error; err != nil {
		t.Fatalf("Failed to create test job: %v", err)
	}

	return job
}
