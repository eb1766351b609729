package app

import (
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/lessonplan-backend/internal/clients/generation"
	"github.com/yungbote/lessonplan-backend/internal/clients/redis"
	"github.com/yungbote/lessonplan-backend/internal/observability"
	"github.com/yungbote/lessonplan-backend/internal/platform/keylock"
	"github.com/yungbote/lessonplan-backend/internal/platform/logger"
)

type Clients struct {
	Generation generation.Client
	Redis      *goredis.Client
	Locker     keylock.Locker
}

func wireClients(log *logger.Logger, cfg Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	gen, err := generation.NewClient(cfg.Generation, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init generation client: %w", err)
	}

	// Redis is optional; without it stage locks only cover this process.
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		log.Warn("REDIS_ADDR not set; using in-process stage locks")
		return Clients{
			Generation: gen,
			Locker:     keylock.WithMetrics(keylock.NewLocal(), "local", metrics),
		}, nil
	}
	rdb, err := redis.New(redis.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	locker := keylock.NewRedis(rdb, keylock.RedisOptions{TTL: cfg.LockTTL}, log)
	return Clients{
		Generation: gen,
		Redis:      rdb,
		Locker:     keylock.WithMetrics(locker, "redis", metrics),
	}, nil
}

func (c Clients) Close() {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
