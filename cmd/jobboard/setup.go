package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/jobboard/internal/auth"
	"github.com/yourusername/jobboard/internal/config"
	"github.com/yourusername/jobboard/internal/storage"
)

// setupStorage は STORAGE_BACKEND に応じてアップロード先を作成します。
func setupStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageS3:
		return storage.NewS3(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Endpoint:  cfg.S3Endpoint,
		})
	default:
		return storage.NewLocal(cfg.UploadDir)
	}
}

// setupAttemptStore は REDIS_URL があれば Redis、無ければプロセス内メモリでログイン試行回数を管理します。
func setupAttemptStore(ctx context.Context, cfg *config.Config) (auth.AttemptStore, func(), error) {
	if cfg.RedisURL == "" {
		return auth.NewMemoryAttemptStore(), func() {}, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return auth.NewRedisAttemptStore(client), func() { _ = client.Close() }, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
