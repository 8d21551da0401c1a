package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	RedisViewsHost string `env:"REDIS_VIEWS_HOST" envDefault:"localhost"`
	RedisViewsPort uint16 `env:"REDIS_VIEWS_PORT" envDefault:"6379"   validate:"min=1000,max=65535"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"market_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"market_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"market_db"`

	// Fallback applied when an auction row carries no increment.
	BidMinIncrement float64 `env:"BID_MIN_INCREMENT" envDefault:"100" validate:"min=0"`

	// Composed views change with every bid; lists change with every
	// status transition, so they expire faster.
	CacheDetailTTLSeconds int `env:"CACHE_DETAIL_TTL_SECONDS" envDefault:"180" validate:"min=1"`
	CacheListTTLSeconds   int `env:"CACHE_LIST_TTL_SECONDS"   envDefault:"60"  validate:"min=1"`

	StoreQueryTimeoutMillis int `env:"STORE_QUERY_TIMEOUT_MILLIS" envDefault:"3000" validate:"min=100"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
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
