package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/config"
	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/repository"
	"github.com/fictusai/fictus_go_server/internal/service"
	"github.com/fictusai/fictus_go_server/internal/testutil"
)

func setupQuotaRouter(db *gorm.DB, failOpen bool) *gin.Engine {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Quota: config.QuotaConfig{
			VideosPerPeriod: 2,
			ImagesPerPeriod: 10,
			FailOpen:        failOpen,
		},
	}
	quotaService := service.NewQuotaService(
		repository.NewUserRepository(db),
		repository.NewUsageRepository(db),
		cfg,
	)

	r := gin.New()
	r.POST("/upload/:category", fakeUser, QuotaCheck(quotaService), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

// fakeUser 把 query 里的 user_id 塞进上下文，代替 JWT 中间件
func fakeUser(c *gin.Context) {
	var userID int64
	fmt.Sscanf(c.Query("user_id"), "%d", &userID)
	c.Set(ContextUserID, userID)
	c.Next()
}

func postUpload(r *gin.Engine, category string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/upload/%s?user_id=%d", category, userID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestQuotaCheck_Allowed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	r := setupQuotaRouter(db, false)
	user := testutil.TestUser(t, db)

	w := postUpload(r, model.CategoryVideo, user.ID)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestQuotaCheck_Denied(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	r := setupQuotaRouter(db, false)
	user := testutil.TestUser(t, db)

	// 视频限额 2
	for i := 0; i < 2; i++ {
		testutil.TestUsageRecord(t, db, user.ID, model.CategoryVideo, time.Now().UTC())
	}

	w := postUpload(r, model.CategoryVideo, user.ID)
	assert.Contains(t, w.Body.String(), `"code":1004`)
	assert.Contains(t, w.Body.String(), "reached your limit")

	// 图片不受视频限额影响
	w = postUpload(r, model.CategoryImage, user.ID)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}

func TestQuotaCheck_InvalidCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	r := setupQuotaRouter(db, false)
	user := testutil.TestUser(t, db)

	w := postUpload(r, "audio", user.ID)
	assert.Contains(t, w.Body.String(), `"code":1000`)
}

func TestQuotaCheck_FailClosed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	r := setupQuotaRouter(db, false)

	// 用户不存在，配额核不了，缺省拒绝
	w := postUpload(r, model.CategoryVideo, 99999)
	assert.Contains(t, w.Body.String(), `"code":5000`)
	assert.Contains(t, w.Body.String(), "could not verify")
}

func TestQuotaCheck_FailOpen(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)

	r := setupQuotaRouter(db, true)

	// fail_open 打开时核不了也放行
	w := postUpload(r, model.CategoryVideo, 99999)
	assert.Contains(t, w.Body.String(), `"ok":true`)
}
