package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/model"
)

type MediaRepository struct {
	db *gorm.DB
}

func NewMediaRepository(db *gorm.DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(media *model.MediaUpload) error {
	return r.db.Create(media).Error
}

func (r *MediaRepository) GetByID(id int64) (*model.MediaUpload, error) {
	var media model.MediaUpload
	err := r.db.Where("id = ?", id).First(&media).Error
	if err != nil {
		return nil, err
	}
	return &media, nil
}

func (r *MediaRepository) Update(media *model.MediaUpload) error {
	return r.db.Save(media).Error
}

func (r *MediaRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&model.MediaUpload{}).Where("id = ?", id).
		Update("status", status).Error
}

// SetResult 写入检测结论并标记完成
func (r *MediaRepository) SetResult(id int64, verdict string, confidence float64) error {
	now := time.Now()
	return r.db.Model(&model.MediaUpload{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       model.MediaStatusCompleted,
		"verdict":      verdict,
		"confidence":   confidence,
		"completed_at": now,
	}).Error
}

func (r *MediaRepository) SetFailed(id int64, errMsg string) error {
	return r.db.Model(&model.MediaUpload{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":        model.MediaStatusFailed,
		"error_message": errMsg,
	}).Error
}

func (r *MediaRepository) Delete(id int64) error {
	return r.db.Delete(&model.MediaUpload{}, id).Error
}

// ListByUser 用户媒体库，按创建时间倒序分页
func (r *MediaRepository) ListByUser(userID int64, category, status string, page, pageSize int) ([]model.MediaUpload, int64, error) {
	query := r.db.Model(&model.MediaUpload{}).Where("user_id = ?", userID)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.MediaUpload
	err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

// ListPublic 公开展示页，按分享时间倒序分页
func (r *MediaRepository) ListPublic(page, pageSize int) ([]model.MediaUpload, int64, error) {
	query := r.db.Model(&model.MediaUpload{}).
		Where("is_public = ? AND status = ?", true, model.MediaStatusCompleted)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []model.MediaUpload
	err := query.Preload("User").
		Order("shared_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error
	return items, total, err
}

func (r *MediaRepository) IncrementViewCount(id int64) error {
	return r.db.Model(&model.MediaUpload{}).Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *MediaRepository) IncrementLikeCount(id int64, delta int) error {
	if delta >= 0 {
		return r.db.Model(&model.MediaUpload{}).Where("id = ?", id).
			Update("like_count", gorm.Expr("like_count + ?", delta)).Error
	}
	// 点赞数不减到负数
	return r.db.Model(&model.MediaUpload{}).Where("id = ?", id).
		Update("like_count", gorm.Expr("CASE WHEN like_count + ? < 0 THEN 0 ELSE like_count + ? END", delta, delta)).Error
}
