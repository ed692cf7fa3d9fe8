package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fictusai/fictus_go_server/internal/pkg/jwt"
	"github.com/fictusai/fictus_go_server/internal/pkg/response"
)

const ContextUserID = "user_id"

// JWTAuth 校验 Authorization 头里的 Bearer 令牌，通过后把用户 ID 放进上下文
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.AuthError(c, "missing authentication token")
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(token, secret)
		if err != nil {
			if err == jwt.ErrExpiredToken {
				response.AuthError(c, "your session has expired, please sign in again")
			} else {
				response.AuthError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// OptionalAuth 有令牌就解析，没有也放行（公开展示页用）
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token != "" {
			if claims, err := jwt.ParseToken(token, secret); err == nil {
				c.Set(ContextUserID, claims.UserID)
			}
		}
		c.Next()
	}
}

// extractToken 支持 Authorization 头和 WebSocket 握手用的 query 参数
func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

// UserID 从上下文取当前用户 ID
func UserID(c *gin.Context) int64 {
	id, _ := c.Get(ContextUserID)
	userID, _ := id.(int64)
	return userID
}
