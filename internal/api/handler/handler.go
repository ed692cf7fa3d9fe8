package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fictusai/fictus_go_server/internal/pkg/response"
)

// idParam 解析路径里的 :id，非法时直接写参数错误响应
func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, "invalid id")
		return 0, false
	}
	return id, true
}
