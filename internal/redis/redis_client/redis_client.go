package redis_client

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// Options locate the Redis instance backing the search cache.
type Options struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func (o Options) addr() string { return fmt.Sprintf("%s:%d", o.Host, o.Port) }

// NewRedisClient connects and pings; the client is closed again when the
// ping fails.
func NewRedisClient(ctx context.Context, o Options) (*redis.Client, error) {
	rc := redis.NewClient(&redis.Options{
		Addr:       o.addr(),
		Password:   o.Password,
		DB:         o.DB,
		ClientName: "broadcastmusic",
		PoolSize:   min(runtime.NumCPU()*4, 128),
		// cache lookups sit on the request path
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rc.Ping(pingCtx).Err(); err != nil {
		_ = rc.Close()
		zap.L().Error("redis_connect", zap.String("addr", o.addr()), zap.Error(err))
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	zap.L().Info("redis_connected", zap.String("addr", o.addr()), zap.Int("db", o.DB))
	return rc, nil
}
