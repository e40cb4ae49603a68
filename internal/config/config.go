package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev" validate:"oneof=dev prod"`

	HttpServerPort     uint16   `env:"HTTP_SERVER_PORT"     envDefault:"5000" validate:"min=1000,max=65535"`
	CorsAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"    envSeparator:","`

	StreamIdleTimeout time.Duration `env:"STREAM_IDLE_TIMEOUT" envDefault:"30s" validate:"gt=0"`
	StreamQueueLimit  int           `env:"STREAM_QUEUE_LIMIT"  envDefault:"0"   validate:"min=0"`

	// 0 keeps rooms for the life of the process.
	RoomIdleTTL      time.Duration `env:"ROOM_IDLE_TTL"      envDefault:"0"  validate:"min=0"`
	RoomReapInterval time.Duration `env:"ROOM_REAP_INTERVAL" envDefault:"1m" validate:"gt=0"`

	SearchApiUrl       string        `env:"SEARCH_API_URL"       envDefault:"https://saavn.dev/api/search/songs" validate:"url"`
	SearchAudioQuality string        `env:"SEARCH_AUDIO_QUALITY" envDefault:"320kbps"`
	SearchImageQuality string        `env:"SEARCH_IMAGE_QUALITY" envDefault:"500x500"`
	SearchLimit        int           `env:"SEARCH_LIMIT"         envDefault:"10"  validate:"min=0,max=50"`
	SearchTimeout      time.Duration `env:"SEARCH_TIMEOUT"       envDefault:"5s"  validate:"gt=0"`
	SearchCacheTTL     time.Duration `env:"SEARCH_CACHE_TTL"     envDefault:"10m" validate:"min=0"`

	// Empty host runs without the search cache.
	RedisHost     string `env:"REDIS_HOST"     envDefault:""`
	RedisPort     uint16 `env:"REDIS_PORT"     envDefault:"6379" validate:"min=1000,max=65535"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDb       int    `env:"REDIS_DB"       envDefault:"0" validate:"min=0"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsProduction() bool { return c.AppEnv == "prod" }
