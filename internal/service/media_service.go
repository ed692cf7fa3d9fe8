package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/config"
	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/pkg/queue"
	"github.com/fictusai/fictus_go_server/internal/repository"
)

var (
	ErrUnsupportedType = errors.New("不支持的文件类型")
	ErrFileTooLarge    = errors.New("文件过大")
	ErrMediaNotFound   = errors.New("媒体不存在")
	ErrNotOwner        = errors.New("无权操作该媒体")
	ErrQuotaExceeded   = errors.New("配额已用完")
)

// ObjectStorage 对象存储抽象，测试用内存实现替换 OSS
type ObjectStorage interface {
	Upload(ctx context.Context, category, objectKey string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, category, objectKey string) error
	GetSignedURL(ctx context.Context, category, objectKey string, expireSeconds int64) (string, error)
}

// JobQueue 检测任务队列抽象
type JobQueue interface {
	Push(ctx context.Context, msg *queue.JobMessage) error
}

// MediaService 上传编排：校验 -> 配额 -> 存储 -> 落库 -> 记配额 -> 排检测任务
type MediaService struct {
	mediaRepo    *repository.MediaRepository
	jobRepo      *repository.JobRepository
	quotaService *QuotaService
	storage      ObjectStorage
	jobQueue     JobQueue
	cfg          *config.Config
}

func NewMediaService(
	mediaRepo *repository.MediaRepository,
	jobRepo *repository.JobRepository,
	quotaService *QuotaService,
	storage ObjectStorage,
	jobQueue JobQueue,
	cfg *config.Config,
) *MediaService {
	return &MediaService{
		mediaRepo:    mediaRepo,
		jobRepo:      jobRepo,
		quotaService: quotaService,
		storage:      storage,
		jobQueue:     jobQueue,
		cfg:          cfg,
	}
}

// UploadInput 一次上传的输入
type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ValidateFile 校验扩展名和大小是否符合类别限制
func (s *MediaService) ValidateFile(category, fileName string, size int64) error {
	catCfg, err := s.categoryConfig(category)
	if err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	allowed := false
	for _, allowedExt := range catCfg.AllowedExtensions {
		if ext == allowedExt {
			allowed = true
			break
		}
	}
	if !allowed {
		return ErrUnsupportedType
	}

	if size > catCfg.MaxSize {
		return ErrFileTooLarge
	}
	return nil
}

// Upload 接收一个已通过认证的上传请求。
// 配额流水只在对象和记录都落稳之后才写，失败的上传不扣配额；
// 流水写失败不回滚上传，只记日志（宁可少计不可误拒）
func (s *MediaService) Upload(ctx context.Context, userID int64, category string, input *UploadInput) (*dto.UploadMediaResponse, error) {
	if err := s.ValidateFile(category, input.FileName, int64(len(input.Data))); err != nil {
		return nil, err
	}

	// 靠近写入处再判一次配额，缩小中间件检查到真正上传之间的竞争窗口
	decision, err := s.quotaService.CheckQuota(userID, category)
	if err != nil {
		return nil, err
	}
	if !decision.CanUpload {
		return nil, fmt.Errorf("%w: %s", ErrQuotaExceeded, decision.Reason)
	}

	ext := strings.ToLower(filepath.Ext(input.FileName))
	objectKey := fmt.Sprintf("%ss/%d/%d%s", category, userID, time.Now().UnixNano(), ext)

	url, err := s.storage.Upload(ctx, category, objectKey, input.Data, input.ContentType)
	if err != nil {
		return nil, err
	}

	media := &model.MediaUpload{
		UserID:      userID,
		Category:    category,
		FileName:    input.FileName,
		ObjectKey:   objectKey,
		URL:         url,
		Size:        int64(len(input.Data)),
		ContentType: input.ContentType,
		Status:      model.MediaStatusPending,
	}
	if err := s.mediaRepo.Create(media); err != nil {
		// 落库失败时对象已在存储里，回收掉避免悬挂
		if delErr := s.storage.Delete(ctx, category, objectKey); delErr != nil {
			log.Printf("Failed to clean up orphan object %s: %v", objectKey, delErr)
		}
		return nil, err
	}

	// 上传已确认成功，记一次配额
	if err := s.quotaService.RecordUsage(userID, category); err != nil {
		log.Printf("Failed to record usage for user %d media %d: %v", userID, media.ID, err)
	}

	job := &model.DetectionJob{
		MediaID: media.ID,
		UserID:  userID,
		Status:  model.JobStatusQueued,
	}
	if err := s.jobRepo.Create(job); err != nil {
		return nil, err
	}

	if err := s.jobQueue.Push(ctx, &queue.JobMessage{
		JobID:    job.ID,
		MediaID:  media.ID,
		UserID:   userID,
		Category: category,
	}); err != nil {
		// 入队失败任务标失败，媒体留在库里可重试
		job.Status = model.JobStatusFailed
		job.ErrorMessage = err.Error()
		if updErr := s.jobRepo.Update(job); updErr != nil {
			log.Printf("Failed to mark job %d failed: %v", job.ID, updErr)
		}
		if updErr := s.mediaRepo.SetFailed(media.ID, "detection could not be scheduled"); updErr != nil {
			log.Printf("Failed to mark media %d failed: %v", media.ID, updErr)
		}
		return nil, err
	}

	// 重新取一次判定，给前端看扣完之后的余量
	fresh, err := s.quotaService.CheckQuota(userID, category)
	if err != nil {
		fresh = decision
	}

	return &dto.UploadMediaResponse{
		MediaID: media.ID,
		JobID:   job.ID,
		URL:     url,
		Status:  media.Status,
		Quota:   fresh,
	}, nil
}

// Get 取单个媒体，只有主人能看未分享的
func (s *MediaService) Get(userID, mediaID int64) (*model.MediaUpload, error) {
	media, err := s.mediaRepo.GetByID(mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	if media.UserID != userID && !media.IsPublic {
		return nil, ErrNotOwner
	}
	return media, nil
}

// List 用户自己的媒体库
func (s *MediaService) List(userID int64, q *dto.ListMediaQuery) ([]model.MediaUpload, int64, error) {
	return s.mediaRepo.ListByUser(userID, q.Category, q.Status, q.Page, q.PageSize)
}

// Delete 删除媒体和底层对象。
// 配额流水不动：删除不回退配额，防止上传-删除循环刷量
func (s *MediaService) Delete(ctx context.Context, userID, mediaID int64) error {
	media, err := s.mediaRepo.GetByID(mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMediaNotFound
		}
		return err
	}
	if media.UserID != userID {
		return ErrNotOwner
	}

	if err := s.storage.Delete(ctx, media.Category, media.ObjectKey); err != nil {
		log.Printf("Failed to delete object %s: %v", media.ObjectKey, err)
		// 对象删不掉不阻塞记录删除，留给巡检
	}

	return s.mediaRepo.Delete(mediaID)
}

func (s *MediaService) categoryConfig(category string) (*config.CategoryUploadConfig, error) {
	switch category {
	case model.CategoryVideo:
		return &s.cfg.Upload.Video, nil
	case model.CategoryImage:
		return &s.cfg.Upload.Image, nil
	default:
		return nil, ErrInvalidCategory
	}
}
