package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fictusai/fictus_go_server/config"
	"github.com/fictusai/fictus_go_server/internal/api/handler"
	"github.com/fictusai/fictus_go_server/internal/api/middleware"
	"github.com/fictusai/fictus_go_server/internal/service"
)

// Handlers 路由需要的所有处理器
type Handlers struct {
	Auth      *handler.AuthHandler
	User      *handler.UserHandler
	Quota     *handler.QuotaHandler
	Media     *handler.MediaHandler
	Library   *handler.LibraryHandler
	WebSocket *handler.WebSocketHandler
}

// NewRouter 装配路由
func NewRouter(cfg *config.Config, handlers *Handlers, quotaService *service.QuotaService) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	r.Use(middleware.CORS(&cfg.CORS))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")

	// 无需登录
	auth := api.Group("/auth")
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)
		auth.GET("/github", handlers.Auth.GithubLogin)
		auth.GET("/github/callback", handlers.Auth.GithubCallback)
	}

	// 公开展示页，登录与否都能看
	gallery := api.Group("/gallery")
	gallery.Use(middleware.OptionalAuth(cfg.JWT.Secret))
	{
		gallery.GET("", handlers.Library.ListGallery)
		gallery.GET("/:id", handlers.Library.GetGalleryItem)
	}

	// 需要登录
	authed := api.Group("")
	authed.Use(middleware.JWTAuth(cfg.JWT.Secret))
	{
		authed.GET("/user/profile", handlers.User.GetProfile)
		authed.PUT("/user/profile", handlers.User.UpdateProfile)
		authed.POST("/user/avatar", handlers.User.UploadAvatar)
		authed.GET("/user/quota", handlers.Quota.GetQuota)

		// 上传走配额闸门
		authed.POST("/upload/:category", middleware.QuotaCheck(quotaService), handlers.Media.Upload)

		authed.GET("/media", handlers.Media.List)
		authed.GET("/media/:id", handlers.Media.Get)
		authed.GET("/media/:id/job", handlers.Media.GetJob)
		authed.DELETE("/media/:id", handlers.Media.Delete)
		authed.POST("/media/:id/share", handlers.Library.Share)
		authed.DELETE("/media/:id/share", handlers.Library.Unshare)

		authed.POST("/gallery/:id/like", handlers.Library.Like)
		authed.DELETE("/gallery/:id/like", handlers.Library.Unlike)

		authed.GET("/ws", handlers.WebSocket.Connect)
	}

	return r
}
