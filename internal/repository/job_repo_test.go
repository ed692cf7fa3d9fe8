package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/testutil"
)

func TestJobRepository_GetByMediaID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	user := testutil.TestUser(t, db)
	media := testutil.TestMedia(t, db, user.ID)

	testutil.TestJob(t, db, user.ID, media.ID, model.JobStatusFailed)
	latest := testutil.TestJob(t, db, user.ID, media.ID, model.JobStatusQueued)
	// 同一媒体多个任务时返回最新的
	require.NoError(t, db.Model(latest).UpdateColumn("created_at", time.Now().Add(time.Minute)).Error)

	got, err := repo.GetByMediaID(media.ID)
	require.NoError(t, err)
	assert.Equal(t, latest.ID, got.ID)
}

func TestJobRepository_ListStale(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewJobRepository(db)
	user := testutil.TestUser(t, db)
	media := testutil.TestMedia(t, db, user.ID)

	stale := testutil.TestJob(t, db, user.ID, media.ID, model.JobStatusProcessing)
	testutil.TestJob(t, db, user.ID, media.ID, model.JobStatusQueued)
	done := testutil.TestJob(t, db, user.ID, media.ID, model.JobStatusCompleted)

	old := time.Now().Add(-3 * time.Hour)
	require.NoError(t, db.Model(stale).UpdateColumn("created_at", old).Error)
	require.NoError(t, db.Model(done).UpdateColumn("created_at", old).Error)

	jobs, err := repo.ListStale(time.Now().Add(-2 * time.Hour))
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, stale.ID, jobs[0].ID)
}
