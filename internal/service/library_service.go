package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/repository"
)

var (
	ErrNotShareable = errors.New("只有检测完成的媒体才能分享")
	ErrAlreadyLiked = errors.New("已经点过赞了")
	ErrNotLiked     = errors.New("还没有点赞")
)

// LibraryService 分享到公开展示页和展示页的浏览/点赞
type LibraryService struct {
	mediaRepo       *repository.MediaRepository
	interactionRepo *repository.InteractionRepository
}

func NewLibraryService(mediaRepo *repository.MediaRepository, interactionRepo *repository.InteractionRepository) *LibraryService {
	return &LibraryService{
		mediaRepo:       mediaRepo,
		interactionRepo: interactionRepo,
	}
}

// Share 把自己的媒体放到公开展示页。
// 检测没跑完的不给分享，展示页只放有结论的内容
func (s *LibraryService) Share(userID, mediaID int64, req *dto.ShareMediaRequest) (*model.MediaUpload, error) {
	media, err := s.ownedMedia(userID, mediaID)
	if err != nil {
		return nil, err
	}
	if media.Status != model.MediaStatusCompleted {
		return nil, ErrNotShareable
	}

	title := req.Title
	if title == "" {
		title = media.FileName
	}

	now := time.Now().UTC()
	media.IsPublic = true
	media.SharedAt = &now
	media.ShareTitle = title
	if err := s.mediaRepo.Update(media); err != nil {
		return nil, err
	}
	return media, nil
}

// Unshare 从展示页撤下，浏览点赞计数保留
func (s *LibraryService) Unshare(userID, mediaID int64) error {
	media, err := s.ownedMedia(userID, mediaID)
	if err != nil {
		return err
	}

	media.IsPublic = false
	media.SharedAt = nil
	media.ShareTitle = ""
	return s.mediaRepo.Update(media)
}

// ListGallery 公开展示页列表
func (s *LibraryService) ListGallery(page, pageSize int) ([]model.MediaUpload, int64, error) {
	return s.mediaRepo.ListPublic(page, pageSize)
}

// GetGalleryItem 看展示页单项并记一次浏览。
// 浏览计数尽力而为，失败不影响取数
func (s *LibraryService) GetGalleryItem(mediaID int64) (*model.MediaUpload, error) {
	media, err := s.mediaRepo.GetByID(mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	if !media.IsPublic {
		return nil, ErrMediaNotFound
	}

	if err := s.mediaRepo.IncrementViewCount(mediaID); err == nil {
		media.ViewCount++
	}
	return media, nil
}

// Like 给展示页内容点赞，一人一赞
func (s *LibraryService) Like(userID, mediaID int64) error {
	media, err := s.mediaRepo.GetByID(mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMediaNotFound
		}
		return err
	}
	if !media.IsPublic {
		return ErrMediaNotFound
	}

	liked, err := s.interactionRepo.Exists(userID, mediaID, model.InteractionLike)
	if err != nil {
		return err
	}
	if liked {
		return ErrAlreadyLiked
	}

	if err := s.interactionRepo.Create(&model.Interaction{
		UserID:  userID,
		MediaID: mediaID,
		Type:    model.InteractionLike,
	}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyLiked
		}
		return err
	}

	return s.mediaRepo.IncrementLikeCount(mediaID, 1)
}

// Unlike 取消点赞
func (s *LibraryService) Unlike(userID, mediaID int64) error {
	err := s.interactionRepo.Delete(userID, mediaID, model.InteractionLike)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotLiked
		}
		return err
	}
	return s.mediaRepo.IncrementLikeCount(mediaID, -1)
}

// HasLiked 当前用户是否点过赞
func (s *LibraryService) HasLiked(userID, mediaID int64) (bool, error) {
	return s.interactionRepo.Exists(userID, mediaID, model.InteractionLike)
}

func (s *LibraryService) ownedMedia(userID, mediaID int64) (*model.MediaUpload, error) {
	media, err := s.mediaRepo.GetByID(mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	if media.UserID != userID {
		return nil, ErrNotOwner
	}
	return media, nil
}
