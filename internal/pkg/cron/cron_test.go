package cron

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/repository"
	"github.com/fictusai/fictus_go_server/internal/testutil"
)

func TestSweeper_SweepOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestUser(t, db)
	staleMedia := testutil.TestMedia(t, db, user.ID, testutil.WithStatus(model.MediaStatusAnalyzing))
	freshMedia := testutil.TestMedia(t, db, user.ID, testutil.WithStatus(model.MediaStatusAnalyzing))

	staleJob := testutil.TestJob(t, db, user.ID, staleMedia.ID, model.JobStatusProcessing)
	freshJob := testutil.TestJob(t, db, user.ID, freshMedia.ID, model.JobStatusProcessing)
	doneJob := testutil.TestJob(t, db, user.ID, freshMedia.ID, model.JobStatusCompleted)

	// 卡了三个小时的任务
	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, db.Model(staleJob).UpdateColumn("created_at", old).Error)

	sweeper := NewSweeper(repository.NewJobRepository(db), repository.NewMediaRepository(db))
	sweeper.SweepOnce(context.Background())

	// 查询目标结构体不能复用：gorm 会把残留的主键当成附加条件
	var gotStale model.DetectionJob
	require.NoError(t, db.First(&gotStale, staleJob.ID).Error)
	assert.Equal(t, model.JobStatusFailed, gotStale.Status)
	assert.Contains(t, gotStale.ErrorMessage, "timed out")

	var gotMedia model.MediaUpload
	require.NoError(t, db.First(&gotMedia, staleMedia.ID).Error)
	assert.Equal(t, model.MediaStatusFailed, gotMedia.Status)

	// 新任务和已完成的不动
	var gotFresh model.DetectionJob
	require.NoError(t, db.First(&gotFresh, freshJob.ID).Error)
	assert.Equal(t, model.JobStatusProcessing, gotFresh.Status)

	var gotDone model.DetectionJob
	require.NoError(t, db.First(&gotDone, doneJob.ID).Error)
	assert.Equal(t, model.JobStatusCompleted, gotDone.Status)
}
