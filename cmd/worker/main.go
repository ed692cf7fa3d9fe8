package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fictusai/fictus_go_server/config"
	"github.com/fictusai/fictus_go_server/internal/database"
	"github.com/fictusai/fictus_go_server/internal/pkg/cron"
	"github.com/fictusai/fictus_go_server/internal/pkg/detect"
	"github.com/fictusai/fictus_go_server/internal/pkg/oss"
	"github.com/fictusai/fictus_go_server/internal/pkg/pubsub"
	"github.com/fictusai/fictus_go_server/internal/pkg/queue"
	"github.com/fictusai/fictus_go_server/internal/repository"
	"github.com/fictusai/fictus_go_server/internal/worker"
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

	probeCtx, probeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	for category, err := range ossClient.Probe(probeCtx) {
		if err != nil {
			log.Printf("Warning: %s bucket unavailable at startup: %v", category, err)
		}
	}
	probeCancel()

	jobRepo := repository.NewJobRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	processor := worker.NewProcessor(
		jobRepo,
		mediaRepo,
		detect.NewClient(&cfg.Detection),
		ossClient,
		pubsub.NewPublisher(rdb),
		queue.NewQueue(rdb, cfg.Queue.DetectionQueue),
	)
	pool := worker.NewPool(processor, cfg.Queue.MaxWorkers)

	ctx, cancel := context.WithCancel(context.Background())

	// 卡死任务巡检
	sweeper := cron.NewSweeper(jobRepo, mediaRepo)
	go sweeper.Run(ctx)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down workers...")
		cancel()
	}()

	log.Printf("Detection workers started (pool size %d)", cfg.Queue.MaxWorkers)
	pool.Run(ctx)
	log.Println("Workers exited")
}
