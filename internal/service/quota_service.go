package service

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/config"
	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/quota"
	"github.com/fictusai/fictus_go_server/internal/repository"
)

var (
	ErrProfileNotFound  = errors.New("用户资料不存在，无法核算配额")
	ErrUsageUnavailable = errors.New("配额用量暂时无法读取")
	ErrInvalidCategory  = errors.New("未知的媒体类别")
)

// QuotaService 滚动月度配额：窗口按账号创建日滚动，上传流水只增不减。
// 检查和记录都是独立的短操作，状态全在库里，无进程内共享状态。
type QuotaService struct {
	userRepo  *repository.UserRepository
	usageRepo *repository.UsageRepository
	cfg       *config.Config
	// 测试注入用，缺省 time.Now
	now func() time.Time
}

func NewQuotaService(userRepo *repository.UserRepository, usageRepo *repository.UsageRepository, cfg *config.Config) *QuotaService {
	return &QuotaService{
		userRepo:  userRepo,
		usageRepo: usageRepo,
		cfg:       cfg,
		now:       time.Now,
	}
}

// FailOpen 配额无法核实时是否放行，由配置决定（缺省拒绝）
func (s *QuotaService) FailOpen() bool {
	return s.cfg.Quota.FailOpen
}

// Usage 当前窗口内的用量
type Usage struct {
	VideosUsed int
	ImagesUsed int
	Window     quota.Window
}

// GetUsage 取当前窗口和窗口内两类用量。
// 窗口和计数用同一个 now，保证一次调用内的一致视图。
func (s *QuotaService) GetUsage(userID int64) (*Usage, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUsageUnavailable, err)
	}

	window, err := quota.CurrentWindow(user.CreatedAt, s.now())
	if err != nil {
		// 创建时间为空或在未来，属于数据完整性问题而非暂时故障
		return nil, err
	}

	videos, err := s.usageRepo.CountInWindow(userID, model.CategoryVideo, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsageUnavailable, err)
	}
	images, err := s.usageRepo.CountInWindow(userID, model.CategoryImage, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUsageUnavailable, err)
	}

	return &Usage{
		VideosUsed: videos,
		ImagesUsed: images,
		Window:     window,
	}, nil
}

// CheckQuota 判定某类别当前能否上传。
// 只读不写；判定为拒绝时 Reason 带人话说明和重置日期
func (s *QuotaService) CheckQuota(userID int64, category string) (*dto.QuotaDecision, error) {
	limit, err := s.limitFor(category)
	if err != nil {
		return nil, err
	}

	usage, err := s.GetUsage(userID)
	if err != nil {
		return nil, err
	}

	used := usage.ImagesUsed
	if category == model.CategoryVideo {
		used = usage.VideosUsed
	}

	decision := s.buildDecision(usage)
	if used < limit {
		decision.CanUpload = true
		remaining := limit - used
		decision.Reason = fmt.Sprintf("You have %s remaining until %s.",
			countNoun(remaining, category), formatResetDate(usage.Window.End))
	} else {
		decision.CanUpload = false
		decision.Reason = fmt.Sprintf("You've reached your limit of %s this period. Your limit resets on %s.",
			countNoun(limit, category), formatResetDate(usage.Window.End))
	}

	return decision, nil
}

// GetSummary 两个类别的配额总览。
// 用量只取一次，窗口和计数来自同一个快照，跨窗口边界时不会拼出两个窗口的数据
func (s *QuotaService) GetSummary(userID int64) (*dto.QuotaSummary, error) {
	usage, err := s.GetUsage(userID)
	if err != nil {
		return nil, err
	}

	decision := s.buildDecision(usage)
	return &dto.QuotaSummary{
		VideosUsed:      decision.VideosUsed,
		ImagesUsed:      decision.ImagesUsed,
		VideosRemaining: decision.VideosRemaining,
		ImagesRemaining: decision.ImagesRemaining,
		CanUploadVideo:  usage.VideosUsed < s.cfg.Quota.VideosPerPeriod,
		CanUploadImage:  usage.ImagesUsed < s.cfg.Quota.ImagesPerPeriod,
		PeriodStart:     decision.PeriodStart,
		PeriodEnd:       decision.PeriodEnd,
	}, nil
}

// RecordUsage 记一次成功上传。只在上传确认落盘之后调用，失败的上传不扣配额。
// 每次各写一条流水，并发调用互不覆盖；不去重（调用方保证至多记一次）
func (s *QuotaService) RecordUsage(userID int64, category string) error {
	if category != model.CategoryVideo && category != model.CategoryImage {
		return ErrInvalidCategory
	}

	record := &model.UsageRecord{
		UserID:     userID,
		Category:   category,
		OccurredAt: s.now().UTC(),
	}
	if err := s.usageRepo.Create(record); err != nil {
		return fmt.Errorf("%w: %v", ErrUsageUnavailable, err)
	}
	return nil
}

func (s *QuotaService) limitFor(category string) (int, error) {
	switch category {
	case model.CategoryVideo:
		return s.cfg.Quota.VideosPerPeriod, nil
	case model.CategoryImage:
		return s.cfg.Quota.ImagesPerPeriod, nil
	default:
		return 0, ErrInvalidCategory
	}
}

func (s *QuotaService) buildDecision(usage *Usage) *dto.QuotaDecision {
	videosRemaining := s.cfg.Quota.VideosPerPeriod - usage.VideosUsed
	if videosRemaining < 0 {
		videosRemaining = 0
	}
	imagesRemaining := s.cfg.Quota.ImagesPerPeriod - usage.ImagesUsed
	if imagesRemaining < 0 {
		imagesRemaining = 0
	}

	return &dto.QuotaDecision{
		VideosUsed:      usage.VideosUsed,
		ImagesUsed:      usage.ImagesUsed,
		VideosRemaining: videosRemaining,
		ImagesRemaining: imagesRemaining,
		PeriodStart:     usage.Window.Start.Format(time.RFC3339),
		PeriodEnd:       usage.Window.End.Format(time.RFC3339),
	}
}

// countNoun 数字加单复数名词："1 video"、"2 videos"、"10 images"
func countNoun(n int, category string) string {
	noun := category
	if n != 1 {
		noun += "s"
	}
	return fmt.Sprintf("%d %s", n, noun)
}

func formatResetDate(end time.Time) string {
	return end.Format("January 2, 2006")
}
