package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/testutil"
)

func TestUsageRepository_CountInWindow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUsageRepository(db)
	user := testutil.TestUser(t, db)
	other := testutil.TestUser(t, db)

	start := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 15, 10, 0, 0, 0, time.UTC)

	// 窗口内两条视频、一条图片
	testutil.TestUsageRecord(t, db, user.ID, model.CategoryVideo, start)
	testutil.TestUsageRecord(t, db, user.ID, model.CategoryVideo, start.Add(24*time.Hour))
	testutil.TestUsageRecord(t, db, user.ID, model.CategoryImage, start.Add(time.Hour))
	// 窗口外
	testutil.TestUsageRecord(t, db, user.ID, model.CategoryVideo, start.Add(-time.Second))
	testutil.TestUsageRecord(t, db, user.ID, model.CategoryVideo, end)
	// 别人的
	testutil.TestUsageRecord(t, db, other.ID, model.CategoryVideo, start.Add(time.Hour))

	videos, err := repo.CountInWindow(user.ID, model.CategoryVideo, start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, videos)

	images, err := repo.CountInWindow(user.ID, model.CategoryImage, start, end)
	require.NoError(t, err)
	assert.Equal(t, 1, images)
}

func TestUsageRepository_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	repo := NewUsageRepository(db)
	user := testutil.TestUser(t, db)

	record := &model.UsageRecord{
		UserID:     user.ID,
		Category:   model.CategoryImage,
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Create(record))
	assert.NotZero(t, record.ID)
}
