package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/model"
)

// UsageRepository 配额使用流水，只追加不修改。
// 并发上传各写各的一条记录，天然没有 read-modify-write 丢更新的问题。
type UsageRepository struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

func (r *UsageRepository) Create(record *model.UsageRecord) error {
	return r.db.Create(record).Error
}

// CountInWindow 统计窗口内某类别的使用次数，区间左闭右开 [start, end)
func (r *UsageRepository) CountInWindow(userID int64, category string, start, end time.Time) (int, error) {
	var count int64
	err := r.db.Model(&model.UsageRecord{}).
		Where("user_id = ? AND category = ? AND occurred_at >= ? AND occurred_at < ?",
			userID, category, start, end).
		Count(&count).Error
	return int(count), err
}
