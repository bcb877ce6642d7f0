// Package config reads the server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dfryer1193/feedapi/shared/db/mongo"
	"github.com/dfryer1193/feedapi/shared/db/sqlite"
	"github.com/dfryer1193/feedapi/shared/events"
)

const (
	StoreSQLite   = "sqlite"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	ImagesLocal = "local"
	ImagesS3    = "s3"
)

const (
	defaultPort          = 8080
	defaultImageDir      = "./images"
	defaultAllowedOrigin = "*"
	defaultLogFormat     = "console"
	defaultLogLevel      = "info"
)

type Config struct {
	Port          int
	StoreBackend  string
	ImageBackend  string
	ImageDir      string
	S3Bucket      string
	AllowedOrigin string
	GinMode       string
	LogLevel      string
	LogFormat     string

	SQLite *sqlite.SQLiteConfig
	Mongo  *mongo.MongoConfig
	Redis  *events.RedisConfig
}

// Load reads the environment and validates backend selections. DATABASE_URL
// is read by the postgres package when that backend is selected.
func Load() (*Config, error) {
	port := defaultPort
	if raw := os.Getenv("PORT"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 || p > 65535 {
			return nil, fmt.Errorf("invalid PORT %q", raw)
		}
		port = p
	}

	cfg := &Config{
		Port:          port,
		StoreBackend:  getenv("STORE_BACKEND", StoreSQLite),
		ImageBackend:  getenv("IMAGE_BACKEND", ImagesLocal),
		ImageDir:      getenv("IMAGE_DIR", defaultImageDir),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		AllowedOrigin: getenv("ALLOWED_ORIGIN", defaultAllowedOrigin),
		GinMode:       os.Getenv("GIN_MODE"),
		LogLevel:      getenv("LOG_LEVEL", defaultLogLevel),
		LogFormat:     getenv("LOG_FORMAT", defaultLogFormat),
		SQLite:        sqlite.NewSQLiteConfig(),
		Mongo:         mongo.NewMongoConfig(),
		Redis:         events.NewRedisConfig(),
	}

	switch cfg.StoreBackend {
	case StoreSQLite, StoreMongo, StorePostgres:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	switch cfg.ImageBackend {
	case ImagesLocal:
	case ImagesS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required when IMAGE_BACKEND is %q", ImagesS3)
		}
	default:
		return nil, fmt.Errorf("unknown IMAGE_BACKEND %q", cfg.ImageBackend)
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
