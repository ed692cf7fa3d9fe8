package worker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/pkg/detect"
	"github.com/fictusai/fictus_go_server/internal/pkg/pubsub"
	"github.com/fictusai/fictus_go_server/internal/pkg/queue"
	"github.com/fictusai/fictus_go_server/internal/repository"
	"github.com/fictusai/fictus_go_server/internal/testutil"
)

type fakeDetector struct {
	result *detect.Result
	err    error
}

func (f *fakeDetector) Detect(ctx context.Context, category, mediaURL string) (*detect.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeURLs struct{}

func (fakeURLs) GetSignedURL(ctx context.Context, category, objectKey string, expireSeconds int64) (string, error) {
	return fmt.Sprintf("https://signed.example.com/%s", objectKey), nil
}

type capturingPublisher struct {
	messages []*pubsub.ProgressMessage
}

func (c *capturingPublisher) PublishProgress(ctx context.Context, msg *pubsub.ProgressMessage) error {
	c.messages = append(c.messages, msg)
	return nil
}

func setupProcessor(t *testing.T, db *gorm.DB, detector Detector) (*Processor, *capturingPublisher) {
	t.Helper()

	publisher := &capturingPublisher{}
	p := NewProcessor(
		repository.NewJobRepository(db),
		repository.NewMediaRepository(db),
		detector,
		fakeURLs{},
		publisher,
		nil,
	)
	return p, publisher
}

func TestProcessor_Process_Success(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestUser(t, db)
	media := testutil.TestMedia(t, db, user.ID, testutil.WithStatus(model.MediaStatusPending))
	job := testutil.TestJob(t, db, user.ID, media.ID, model.JobStatusQueued)

	detector := &fakeDetector{result: &detect.Result{Verdict: model.VerdictAI, Confidence: 0.97}}
	p, publisher := setupProcessor(t, db, detector)

	err := p.Process(context.Background(), &queue.JobMessage{
		JobID:    job.ID,
		MediaID:  media.ID,
		UserID:   user.ID,
		Category: media.Category,
	})
	require.NoError(t, err)

	// 结论写回媒体
	var got model.MediaUpload
	require.NoError(t, db.First(&got, media.ID).Error)
	assert.Equal(t, model.MediaStatusCompleted, got.Status)
	assert.Equal(t, model.VerdictAI, got.Verdict)
	assert.InDelta(t, 0.97, got.Confidence, 0.001)
	assert.NotNil(t, got.CompletedAt)

	// 任务收尾
	var gotJob model.DetectionJob
	require.NoError(t, db.First(&gotJob, job.ID).Error)
	assert.Equal(t, model.JobStatusCompleted, gotJob.Status)
	assert.NotNil(t, gotJob.StartedAt)
	assert.NotNil(t, gotJob.CompletedAt)

	// 进度按阶段推进，最后一条是 done
	require.NotEmpty(t, publisher.messages)
	steps := make([]string, 0, len(publisher.messages))
	for _, m := range publisher.messages {
		steps = append(steps, m.Step)
	}
	assert.Equal(t, []string{
		pubsub.StepFetching,
		pubsub.StepAnalyzing,
		pubsub.StepSaving,
		pubsub.StepDone,
	}, steps)
	assert.Equal(t, model.JobStatusCompleted, publisher.messages[len(publisher.messages)-1].Status)
}

func TestProcessor_Process_DetectorFailure(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestUser(t, db)
	media := testutil.TestMedia(t, db, user.ID, testutil.WithStatus(model.MediaStatusPending))
	job := testutil.TestJob(t, db, user.ID, media.ID, model.JobStatusQueued)

	detector := &fakeDetector{err: detect.ErrRateLimited}
	p, publisher := setupProcessor(t, db, detector)

	err := p.Process(context.Background(), &queue.JobMessage{
		JobID:   job.ID,
		MediaID: media.ID,
		UserID:  user.ID,
	})
	require.Error(t, err)

	var got model.MediaUpload
	require.NoError(t, db.First(&got, media.ID).Error)
	assert.Equal(t, model.MediaStatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "busy")

	var gotJob model.DetectionJob
	require.NoError(t, db.First(&gotJob, job.ID).Error)
	assert.Equal(t, model.JobStatusFailed, gotJob.Status)

	last := publisher.messages[len(publisher.messages)-1]
	assert.Equal(t, model.JobStatusFailed, last.Status)
	assert.NotEmpty(t, last.Error)
}

func TestProcessor_Process_MissingJobDropped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	p, publisher := setupProcessor(t, db, &fakeDetector{})

	// 任务记录不存在时安静丢弃，不报错不广播
	err := p.Process(context.Background(), &queue.JobMessage{JobID: 99999, MediaID: 1, UserID: 1})
	assert.NoError(t, err)
	assert.Empty(t, publisher.messages)
}

func TestProcessor_Process_AlreadyProcessedSkipped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestUser(t, db)
	media := testutil.TestMedia(t, db, user.ID)
	job := testutil.TestJob(t, db, user.ID, media.ID, model.JobStatusCompleted)

	p, publisher := setupProcessor(t, db, &fakeDetector{})

	// 重复投递的消息直接跳过
	err := p.Process(context.Background(), &queue.JobMessage{
		JobID:   job.ID,
		MediaID: media.ID,
		UserID:  user.ID,
	})
	assert.NoError(t, err)
	assert.Empty(t, publisher.messages)
}

func TestProcessor_Process_MediaDeletedBeforeRun(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	user := testutil.TestUser(t, db)
	job := testutil.TestJob(t, db, user.ID, 99999, model.JobStatusQueued)

	p, _ := setupProcessor(t, db, &fakeDetector{})

	err := p.Process(context.Background(), &queue.JobMessage{
		JobID:   job.ID,
		MediaID: 99999,
		UserID:  user.ID,
	})
	require.Error(t, err)

	var gotJob model.DetectionJob
	require.NoError(t, db.First(&gotJob, job.ID).Error)
	assert.Equal(t, model.JobStatusFailed, gotJob.Status)
	assert.Contains(t, gotJob.ErrorMessage, "no longer exists")
}
