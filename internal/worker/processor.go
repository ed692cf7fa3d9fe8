package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/pkg/detect"
	"github.com/fictusai/fictus_go_server/internal/pkg/pubsub"
	"github.com/fictusai/fictus_go_server/internal/pkg/queue"
	"github.com/fictusai/fictus_go_server/internal/repository"
)

// 签名 URL 的有效期，覆盖最慢的检测耗时即可
const signedURLExpireSeconds = 1800

// 队列空轮询的阻塞时长
const popTimeout = 5 * time.Second

// Detector 检测后端抽象，测试换假实现
type Detector interface {
	Detect(ctx context.Context, category, mediaURL string) (*detect.Result, error)
}

// SignedURLProvider 给检测服务签临时可读地址
type SignedURLProvider interface {
	GetSignedURL(ctx context.Context, category, objectKey string, expireSeconds int64) (string, error)
}

// ProgressPublisher 检测进度的发布端
type ProgressPublisher interface {
	PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error
}

// JobSource 任务来源
type JobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.JobMessage, error)
}

// Processor 消费检测任务：取签名地址 -> 调检测 API -> 写回结论，
// 每一步都向进度频道广播
type Processor struct {
	jobRepo   *repository.JobRepository
	mediaRepo *repository.MediaRepository
	detector  Detector
	urls      SignedURLProvider
	publisher ProgressPublisher
	source    JobSource
}

func NewProcessor(
	jobRepo *repository.JobRepository,
	mediaRepo *repository.MediaRepository,
	detector Detector,
	urls SignedURLProvider,
	publisher ProgressPublisher,
	source JobSource,
) *Processor {
	return &Processor{
		jobRepo:   jobRepo,
		mediaRepo: mediaRepo,
		detector:  detector,
		urls:      urls,
		publisher: publisher,
		source:    source,
	}
}

// Run 持续消费队列直到 ctx 取消
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		msg, err := p.source.Pop(ctx, popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Failed to pop detection job: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		if err := p.Process(ctx, msg); err != nil {
			log.Printf("Detection job %d failed: %v", msg.JobID, err)
		}
	}
}

// Process 处理单个检测任务
func (p *Processor) Process(ctx context.Context, msg *queue.JobMessage) error {
	job, err := p.jobRepo.GetByID(msg.JobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// 任务记录没了（比如媒体已删除），丢弃消息
			log.Printf("Detection job %d not found, dropping", msg.JobID)
			return nil
		}
		return err
	}
	if job.Status != model.JobStatusQueued {
		// 重复投递或清理任务已处理过，跳过
		return nil
	}

	media, err := p.mediaRepo.GetByID(msg.MediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return p.fail(ctx, job, msg, "the uploaded file no longer exists")
		}
		return err
	}

	started := time.Now()
	job.Status = model.JobStatusProcessing
	job.StartedAt = &started
	job.CurrentStep = pubsub.StepFetching
	if err := p.jobRepo.Update(job); err != nil {
		return err
	}
	if err := p.mediaRepo.UpdateStatus(media.ID, model.MediaStatusAnalyzing); err != nil {
		log.Printf("Failed to mark media %d analyzing: %v", media.ID, err)
	}
	p.publish(ctx, msg, model.JobStatusProcessing, pubsub.StepFetching, "")

	signedURL, err := p.urls.GetSignedURL(ctx, media.Category, media.ObjectKey, signedURLExpireSeconds)
	if err != nil {
		return p.fail(ctx, job, msg, "we could not read your file from storage")
	}

	p.advance(job, pubsub.StepAnalyzing)
	p.publish(ctx, msg, model.JobStatusProcessing, pubsub.StepAnalyzing, "")

	result, err := p.detector.Detect(ctx, media.Category, signedURL)
	if err != nil {
		return p.fail(ctx, job, msg, detectUserMessage(err))
	}

	p.advance(job, pubsub.StepSaving)
	p.publish(ctx, msg, model.JobStatusProcessing, pubsub.StepSaving, "")

	if err := p.mediaRepo.SetResult(media.ID, result.Verdict, result.Confidence); err != nil {
		return p.fail(ctx, job, msg, "we could not save the detection result")
	}

	completed := time.Now()
	job.Status = model.JobStatusCompleted
	job.CurrentStep = pubsub.StepDone
	job.CompletedAt = &completed
	job.ElapsedSeconds = int(completed.Sub(started).Seconds())
	if err := p.jobRepo.Update(job); err != nil {
		return err
	}

	p.publish(ctx, msg, model.JobStatusCompleted, pubsub.StepDone, "")
	return nil
}

func (p *Processor) advance(job *model.DetectionJob, step string) {
	job.CurrentStep = step
	if err := p.jobRepo.Update(job); err != nil {
		log.Printf("Failed to update job %d step: %v", job.ID, err)
	}
}

// fail 统一的失败收尾：任务、媒体、进度广播三处都写上
func (p *Processor) fail(ctx context.Context, job *model.DetectionJob, msg *queue.JobMessage, userMessage string) error {
	completed := time.Now()
	job.Status = model.JobStatusFailed
	job.ErrorMessage = userMessage
	job.CompletedAt = &completed
	if job.StartedAt != nil {
		job.ElapsedSeconds = int(completed.Sub(*job.StartedAt).Seconds())
	}
	if err := p.jobRepo.Update(job); err != nil {
		log.Printf("Failed to mark job %d failed: %v", job.ID, err)
	}

	if err := p.mediaRepo.SetFailed(msg.MediaID, userMessage); err != nil {
		log.Printf("Failed to mark media %d failed: %v", msg.MediaID, err)
	}

	p.publish(ctx, msg, model.JobStatusFailed, "", userMessage)
	return errors.New(userMessage)
}

func (p *Processor) publish(ctx context.Context, msg *queue.JobMessage, status, step, errMsg string) {
	progress := &pubsub.ProgressMessage{
		UserID:  msg.UserID,
		MediaID: msg.MediaID,
		JobID:   msg.JobID,
		Status:  status,
		Step:    step,
		Error:   errMsg,
	}
	if errMsg != "" {
		progress.Message = errMsg
	}
	if err := p.publisher.PublishProgress(ctx, progress); err != nil {
		log.Printf("Failed to publish progress for job %d: %v", msg.JobID, err)
	}
}

// detectUserMessage 检测 API 错误翻译成给用户看的话
func detectUserMessage(err error) string {
	switch {
	case errors.Is(err, detect.ErrRateLimited):
		return "the detection service is busy right now, please try again in a few minutes"
	case errors.Is(err, detect.ErrUnauthorized):
		return "the detection service rejected our request, our team has been notified"
	case errors.Is(err, detect.ErrUnavailable):
		return "the detection service is temporarily unavailable, please try again later"
	default:
		return "detection failed, please try again later"
	}
}

// Pool 固定数量的 worker 并发消费同一个队列
type Pool struct {
	processor *Processor
	size      int
}

func NewPool(processor *Processor, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{processor: processor, size: size}
}

// Run 启动所有 worker 并等待它们随 ctx 退出
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.size; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.processor.Run(ctx)
		}()
	}
	wg.Wait()
}
