package main

import (
	"broadcastmusic/internal/config"
	"broadcastmusic/internal/http/http_server"
	"broadcastmusic/internal/reaper"
	"broadcastmusic/internal/redis/redis_client"
	"broadcastmusic/internal/services/room"
	"broadcastmusic/internal/services/search"
	"broadcastmusic/internal/stream"
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var (
	Log, _ = zap.NewDevelopment()
)

func main() {
	zap.ReplaceGlobals(Log)
	defer syncLogger()

	var err error
	var cfg *config.Config
	var redisClient *redis.Client
	var roomService room.IRoomService

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.IsProduction() {
		Log, _ = zap.NewProduction()
		zap.ReplaceGlobals(Log)
		gin.SetMode(gin.ReleaseMode)
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Redis (search cache only, optional)
	if cfg.RedisHost != "" {
		redisClient, err = redis_client.NewRedisClient(ctx, redis_client.Options{
			Host:     cfg.RedisHost,
			Port:     int(cfg.RedisPort),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDb,
		})
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
	}

	// 4. Client registry + room registry; the hub is the room's publisher
	hub := stream.NewHub(cfg.StreamQueueLimit)
	rooms := room.NewRegistry(hub)
	roomService = room.NewRoomService(rooms)

	searchService := search.NewSearchService(redisClient, search.Options{
		BaseURL:      cfg.SearchApiUrl,
		AudioQuality: cfg.SearchAudioQuality,
		ImageQuality: cfg.SearchImageQuality,
		Limit:        cfg.SearchLimit,
		Timeout:      cfg.SearchTimeout,
		CacheTTL:     cfg.SearchCacheTTL,
	})

	// 5. Background: idle room reaper (no-op unless ROOM_IDLE_TTL > 0)
	reaper.Run(ctx, rooms, hub, cfg.RoomIdleTTL, cfg.RoomReapInterval)

	// 6. Stream server (SSE + WebSocket)
	streamSrv := stream.NewStreamServer(hub, roomService, cfg.StreamIdleTimeout)

	// 7. HTTP server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, cfg.CorsAllowedOrigins,
		streamSrv, hub, roomService, searchService)

	if err := httpServer.Run(); err != nil {
		Log.Fatal("HTTP server failed", zap.Error(err))
	}
	Log.Info("Shut down")
}

// syncLogger flushes whichever logger is installed when main returns; the
// production logger replaces the development one after config is read.
func syncLogger() { _ = zap.L().Sync() }
