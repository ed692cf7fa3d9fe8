package repository

import (
	"errors"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/model"
)

type InteractionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{db: db}
}

// Create 唯一索引兜底重复点赞，冲突时返回 gorm.ErrDuplicatedKey
func (r *InteractionRepository) Create(interaction *model.Interaction) error {
	return r.db.Create(interaction).Error
}

func (r *InteractionRepository) Delete(userID, mediaID int64, interactionType string) error {
	result := r.db.Where("user_id = ? AND media_id = ? AND type = ?",
		userID, mediaID, interactionType).
		Delete(&model.Interaction{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *InteractionRepository) Exists(userID, mediaID int64, interactionType string) (bool, error) {
	var interaction model.Interaction
	err := r.db.Where("user_id = ? AND media_id = ? AND type = ?",
		userID, mediaID, interactionType).
		First(&interaction).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
