package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/fictusai/fictus_go_server/internal/api/middleware"
	"github.com/fictusai/fictus_go_server/internal/pkg/response"
	"github.com/fictusai/fictus_go_server/internal/service"
)

type QuotaHandler struct {
	quotaService *service.QuotaService
}

func NewQuotaHandler(quotaService *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{quotaService: quotaService}
}

// GetQuota GET /api/v1/user/quota
// 前端展示当前窗口的余量和重置时间，两个类别出自同一次用量快照
func (h *QuotaHandler) GetQuota(c *gin.Context) {
	summary, err := h.quotaService.GetSummary(middleware.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			response.NotFoundError(c, "")
			return
		}
		response.ServerError(c, "we could not load your usage right now, please try again shortly")
		return
	}

	response.Success(c, summary)
}
