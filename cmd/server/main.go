package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"fileshare-service/internal/blobstore"
	"fileshare-service/internal/config"
	"fileshare-service/internal/handler"
	"fileshare-service/internal/repository/fileRepo"
	"fileshare-service/internal/repository/sessionRepo"
	"fileshare-service/internal/repository/shareRepo"
	"fileshare-service/internal/repository/userRepo"
	"fileshare-service/internal/service/access"
	"fileshare-service/internal/service/authService"
	"fileshare-service/internal/service/fileService"
	"fileshare-service/internal/service/shareService"
	"fileshare-service/pkg/database/postgres"
	"fileshare-service/pkg/database/redis"
	"fileshare-service/pkg/logger"
)

func main() {
	ctx := context.Background()

	log, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("error loading config", zap.Error(err))
	}

	pool, err := postgres.New(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("error connecting to postgres", zap.Error(err))
	}
	defer pool.Close()

	redisClient := redis.New(cfg.Redis)
	blobs, err := blobstore.New(ctx, cfg.MinIO)
	if err != nil {
		log.Fatal("error connecting to blob storage", zap.Error(err))
	}

	users := userRepo.New(pool)
	files := fileRepo.New(pool)
	shares := shareRepo.New(pool)
	sessions := sessionRepo.New(redisClient)

	authSvc := authService.New(users, sessions, cfg.JWTSecret)
	shareSvc := shareService.New(shares, files, users, log)
	evaluator := access.New(files, shares)
	fileSvc := fileService.New(files, shares, blobs, evaluator, shareSvc, log)

	router := handler.NewRouter(
		handler.NewAuthHandler(authSvc),
		handler.NewFileHandler(fileSvc, shareSvc),
		handler.NewShareHandler(shareSvc, cfg.BaseURL),
		authSvc,
		cfg.BaseURL,
	)

	log.Info("server starting", zap.String("port", cfg.HTTPPort))
	if err := router.Run(fmt.Sprintf(":%s", cfg.HTTPPort)); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
