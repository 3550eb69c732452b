package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/pkg/logger"
	"github.com/devel-fonseca/rafa-ilpi-data-sub017/internal/realtime/bus"
)

// Clients holds external connections. Both are nil when REDIS_ADDR is unset.
type Clients struct {
	Redis  *goredis.Client
	SSEBus bus.Bus
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	if cfg.RedisAddr == "" {
		log.Info("REDIS_ADDR not set, using in-process realtime and permission cache")
		return Clients{}, nil
	}

	rdb, err := bus.Dial(ctx, cfg.RedisAddr)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	sseBus, err := bus.NewRedisBus(log, rdb, cfg.RedisChannel)
	if err != nil {
		_ = rdb.Close()
		return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
	}
	return Clients{Redis: rdb, SSEBus: sseBus}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
