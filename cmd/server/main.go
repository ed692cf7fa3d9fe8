package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fictusai/fictus_go_server/config"
	"github.com/fictusai/fictus_go_server/internal/api"
	"github.com/fictusai/fictus_go_server/internal/api/handler"
	"github.com/fictusai/fictus_go_server/internal/database"
	"github.com/fictusai/fictus_go_server/internal/pkg/oauth"
	"github.com/fictusai/fictus_go_server/internal/pkg/oss"
	"github.com/fictusai/fictus_go_server/internal/pkg/pubsub"
	"github.com/fictusai/fictus_go_server/internal/pkg/queue"
	"github.com/fictusai/fictus_go_server/internal/pkg/ws"
	"github.com/fictusai/fictus_go_server/internal/repository"
	"github.com/fictusai/fictus_go_server/internal/service"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}

	ossClient, err := oss.NewClient(&cfg.OSS)
	if err != nil {
		log.Fatalf("Failed to create OSS client: %v", err)
	}

	// 启动期探测桶可用性，失败只告警（配额判定不依赖存储）
	probeCtx, probeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	for category, err := range ossClient.Probe(probeCtx) {
		if err != nil {
			log.Printf("Warning: %s bucket unavailable at startup: %v", category, err)
		}
	}
	probeCancel()

	// 仓库层
	userRepo := repository.NewUserRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	mediaRepo := repository.NewMediaRepository(db)
	jobRepo := repository.NewJobRepository(db)
	interactionRepo := repository.NewInteractionRepository(db)

	// 服务层
	githubOAuth := oauth.NewGithubOAuth(
		cfg.OAuth.Github.ClientID,
		cfg.OAuth.Github.ClientSecret,
		cfg.OAuth.Github.RedirectURI,
	)
	stateStore := oauth.NewStateStore(rdb)
	detectionQueue := queue.NewQueue(rdb, cfg.Queue.DetectionQueue)

	authService := service.NewAuthService(userRepo, githubOAuth, stateStore, cfg)
	userService := service.NewUserService(userRepo, ossClient)
	quotaService := service.NewQuotaService(userRepo, usageRepo, cfg)
	mediaService := service.NewMediaService(mediaRepo, jobRepo, quotaService, ossClient, detectionQueue, cfg)
	libraryService := service.NewLibraryService(mediaRepo, interactionRepo)

	// WebSocket 推送：订阅 worker 发的进度，转发给在线用户
	hub := ws.NewHub()
	subscriber := pubsub.NewSubscriber(rdb)
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	go func() {
		err := subscriber.Subscribe(subCtx, func(msg *pubsub.ProgressMessage) {
			if !hub.IsOnline(msg.UserID) {
				return
			}
			if err := hub.SendToUser(msg.UserID, &ws.Message{Type: msg.Type, Data: msg}); err != nil {
				log.Printf("Failed to push progress to user %d: %v", msg.UserID, err)
			}
		})
		if err != nil && subCtx.Err() == nil {
			log.Printf("Progress subscriber stopped: %v", err)
		}
	}()

	router := api.NewRouter(cfg, &api.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		User:      handler.NewUserHandler(userService),
		Quota:     handler.NewQuotaHandler(quotaService),
		Media:     handler.NewMediaHandler(mediaService, jobRepo),
		Library:   handler.NewLibraryHandler(libraryService),
		WebSocket: handler.NewWebSocketHandler(hub),
	}, quotaService)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// 优雅退出
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	subCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
