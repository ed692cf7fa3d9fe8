package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/model"
)

type JobRepository struct {
	db *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(job *model.DetectionJob) error {
	return r.db.Create(job).Error
}

func (r *JobRepository) GetByID(id int64) (*model.DetectionJob, error) {
	var job model.DetectionJob
	err := r.db.Where("id = ?", id).First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) GetByMediaID(mediaID int64) (*model.DetectionJob, error) {
	var job model.DetectionJob
	err := r.db.Where("media_id = ?", mediaID).Order("created_at DESC").First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) Update(job *model.DetectionJob) error {
	return r.db.Save(job).Error
}

// ListStale 返回卡在 queued/processing 超过 cutoff 的任务，定时清理用
func (r *JobRepository) ListStale(cutoff time.Time) ([]model.DetectionJob, error) {
	var jobs []model.DetectionJob
	err := r.db.Where("status IN ? AND created_at < ?",
		[]string{model.JobStatusQueued, model.JobStatusProcessing}, cutoff).
		Find(&jobs).Error
	return jobs, err
}
