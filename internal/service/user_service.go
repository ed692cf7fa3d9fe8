package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/repository"
)

var ErrUserNotFound = errors.New("用户不存在")

// 头像上限 2MB，够用且防滥用
const avatarMaxSize = 2 * 1024 * 1024

var avatarExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// UserService 用户资料
type UserService struct {
	userRepo *repository.UserRepository
	storage  ObjectStorage
}

func NewUserService(userRepo *repository.UserRepository, storage ObjectStorage) *UserService {
	return &UserService{userRepo: userRepo, storage: storage}
}

// GetProfile 取当前用户资料
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserInfo(user), nil
}

// UpdateProfile 更新可改字段（目前只有用户名）
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if req.Username != nil && *req.Username != user.Username {
		taken, err := s.userRepo.ExistsByUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrUsernameTaken
		}
		user.Username = *req.Username
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return toUserInfo(user), nil
}

// UploadAvatar 上传头像到图片桶并更新资料
func (s *UserService) UploadAvatar(ctx context.Context, userID int64, fileName string, data []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	allowed := false
	for _, allowedExt := range avatarExtensions {
		if ext == allowedExt {
			allowed = true
			break
		}
	}
	if !allowed {
		return "", ErrUnsupportedType
	}
	if int64(len(data)) > avatarMaxSize {
		return "", ErrFileTooLarge
	}

	objectKey := fmt.Sprintf("avatars/%d/%d%s", userID, time.Now().UnixNano(), ext)
	url, err := s.storage.Upload(ctx, model.CategoryImage, objectKey, data, "image/"+strings.TrimPrefix(ext, "."))
	if err != nil {
		return "", err
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"avatar_url": url}); err != nil {
		return "", err
	}
	return url, nil
}
