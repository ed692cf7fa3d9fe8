package middleware

import (
	"errors"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/fictusai/fictus_go_server/internal/model"
	"github.com/fictusai/fictus_go_server/internal/pkg/response"
	"github.com/fictusai/fictus_go_server/internal/service"
)

// QuotaCheck 上传前的配额闸门，类别取自路由参数。
// 配额无法核实时的放行/拒绝由配置里的 fail_open 决定，缺省拒绝
func QuotaCheck(quotaService *service.QuotaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		category := c.Param("category")
		if category != model.CategoryVideo && category != model.CategoryImage {
			response.ParamError(c, "category must be video or image")
			c.Abort()
			return
		}

		userID := UserID(c)
		decision, err := quotaService.CheckQuota(userID, category)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCategory) {
				response.ParamError(c, "category must be video or image")
				c.Abort()
				return
			}

			log.Printf("Quota check failed for user %d: %v", userID, err)
			if quotaService.FailOpen() {
				c.Next()
				return
			}
			response.ServerError(c, "we could not verify your upload quota, please try again shortly")
			c.Abort()
			return
		}

		if !decision.CanUpload {
			response.QuotaError(c, decision.Reason)
			c.Abort()
			return
		}

		c.Next()
	}
}
