package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fictusai/fictus_go_server/internal/api/middleware"
	"github.com/fictusai/fictus_go_server/internal/model/dto"
	"github.com/fictusai/fictus_go_server/internal/pkg/oss"
	"github.com/fictusai/fictus_go_server/internal/pkg/response"
	"github.com/fictusai/fictus_go_server/internal/repository"
	"github.com/fictusai/fictus_go_server/internal/service"
)

type MediaHandler struct {
	mediaService *service.MediaService
	jobRepo      *repository.JobRepository
}

func NewMediaHandler(mediaService *service.MediaService, jobRepo *repository.JobRepository) *MediaHandler {
	return &MediaHandler{mediaService: mediaService, jobRepo: jobRepo}
}

// Upload POST /api/v1/upload/:category
// 配额闸门在中间件，这里负责收文件和编排
func (h *MediaHandler) Upload(c *gin.Context) {
	category := c.Param("category")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ParamError(c, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.ParamError(c, "could not read the uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.ParamError(c, "could not read the uploaded file")
		return
	}

	resp, err := h.mediaService.Upload(c.Request.Context(), middleware.UserID(c), category, &service.UploadInput{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCategory):
			response.ParamError(c, "category must be video or image")
		case errors.Is(err, service.ErrUnsupportedType):
			response.ParamError(c, "this file type is not supported")
		case errors.Is(err, service.ErrFileTooLarge):
			response.ParamError(c, "this file is too large")
		case errors.Is(err, service.ErrQuotaExceeded):
			response.QuotaError(c, quotaReason(err))
		case errors.Is(err, service.ErrProfileNotFound), errors.Is(err, service.ErrUsageUnavailable):
			response.ServerError(c, "we could not verify your upload quota, please try again shortly")
		default:
			response.ServerError(c, oss.UserMessage(err))
		}
		return
	}

	response.Success(c, resp)
}

// quotaReason 剥掉内部错误前缀，只留给用户看的那句
func quotaReason(err error) string {
	msg := err.Error()
	prefix := service.ErrQuotaExceeded.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return ""
}

// List GET /api/v1/media
func (h *MediaHandler) List(c *gin.Context) {
	var q dto.ListMediaQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.ParamError(c, "")
		return
	}

	items, total, err := h.mediaService.List(middleware.UserID(c), &q)
	if err != nil {
		response.ServerError(c, "")
		return
	}
	response.SuccessPage(c, total, q.Page, q.PageSize, items)
}

// Get GET /api/v1/media/:id
func (h *MediaHandler) Get(c *gin.Context) {
	mediaID, ok := idParam(c)
	if !ok {
		return
	}

	media, err := h.mediaService.Get(middleware.UserID(c), mediaID)
	if err != nil {
		mediaError(c, err)
		return
	}
	response.Success(c, media)
}

// GetJob GET /api/v1/media/:id/job
// 轮询检测进度的兜底接口（WebSocket 断了的时候用）
func (h *MediaHandler) GetJob(c *gin.Context) {
	mediaID, ok := idParam(c)
	if !ok {
		return
	}

	// 先做归属校验
	if _, err := h.mediaService.Get(middleware.UserID(c), mediaID); err != nil {
		mediaError(c, err)
		return
	}

	job, err := h.jobRepo.GetByMediaID(mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFoundError(c, "no detection job for this media")
			return
		}
		response.ServerError(c, "")
		return
	}
	response.Success(c, job)
}

// Delete DELETE /api/v1/media/:id
func (h *MediaHandler) Delete(c *gin.Context) {
	mediaID, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.mediaService.Delete(c.Request.Context(), middleware.UserID(c), mediaID); err != nil {
		mediaError(c, err)
		return
	}
	response.Success(c, nil)
}

func mediaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMediaNotFound):
		response.NotFoundError(c, "")
	case errors.Is(err, service.ErrNotOwner):
		response.PermissionError(c, "")
	default:
		response.ServerError(c, "")
	}
}
