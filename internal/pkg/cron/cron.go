package cron

import (
	"context"
	"log"
	"time"

	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/repository"
)

const (
	// 巡检间隔
	sweepInterval = time.Hour
	// 超过这个时长还没跑完的任务按失败处理
	staleAfter = 2 * time.Hour
)

// Sweeper 定时把卡死的检测任务标成失败，让前端不再干等。
// 配额窗口是算出来的，不需要定时重置
type Sweeper struct {
	jobRepo   *repository.JobRepository
	mediaRepo *repository.MediaRepository
}

func NewSweeper(jobRepo *repository.JobRepository, mediaRepo *repository.MediaRepository) *Sweeper {
	return &Sweeper{jobRepo: jobRepo, mediaRepo: mediaRepo}
}

// Run 启动巡检循环，随 ctx 退出
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepOnce(ctx)
		}
	}
}

// SweepOnce 执行一轮巡检
func (s *Sweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-staleAfter)
	jobs, err := s.jobRepo.ListStale(cutoff)
	if err != nil {
		log.Printf("Failed to list stale jobs: %v", err)
		return
	}

	for _, job := range jobs {
		now := time.Now()
		job.Status = model.JobStatusFailed
		job.ErrorMessage = "detection timed out, please upload again"
		job.CompletedAt = &now
		if err := s.jobRepo.Update(&job); err != nil {
			log.Printf("Failed to mark stale job %d failed: %v", job.ID, err)
			continue
		}
		if err := s.mediaRepo.SetFailed(job.MediaID, job.ErrorMessage); err != nil {
			log.Printf("Failed to mark media %d failed: %v", job.MediaID, err)
		}
		log.Printf("Stale detection job %d marked failed", job.ID)
	}
}
