// Package config loads the server's configuration from the environment.
//
// Every setting has an environment variable; cmd/server loads an optional
// .env file first, so local development can keep them in one place.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"

	MediaDisk = "disk"
	MediaS3   = "s3"
)

// minSecretLen matches the check in auth.NewTokenService.
const minSecretLen = 16

// Config holds runtime configuration for the server.
//
// The JWT secret lives here and is handed to auth.NewTokenService
// explicitly. Nothing reads it from the environment after startup.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"development"`
	Port   int    `envconfig:"PORT" default:"8000"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	JWTSecret  string `envconfig:"JWT_SECRET" required:"true"`
	BcryptCost int    `envconfig:"BCRYPT_COST" default:"10"`

	StoreDriver   string `envconfig:"STORE_DRIVER" default:"sqlite"`
	DBPath        string `envconfig:"DB_PATH" default:"data/cars.db"`
	MongoURI      string `envconfig:"MONGO_URI"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"carlistings"`

	MediaDriver  string `envconfig:"MEDIA_DRIVER" default:"disk"`
	MediaDir     string `envconfig:"MEDIA_DIR" default:"data/media"`
	MediaBaseURL string `envconfig:"MEDIA_BASE_URL" default:"http://localhost:8000/media"`
	S3Bucket     string `envconfig:"S3_BUCKET"`
	S3Region     string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint   string `envconfig:"S3_ENDPOINT"`
	S3AccessKey  string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey  string `envconfig:"S3_SECRET_KEY"`
	S3PublicURL  string `envconfig:"S3_PUBLIC_URL"`

	UploadMaxMemory   int64 `envconfig:"UPLOAD_MAX_MEMORY" default:"33554432"`
	MaxImages         int   `envconfig:"MAX_IMAGES" default:"10"`
	UploadConcurrency int   `envconfig:"UPLOAD_CONCURRENCY" default:"4"`

	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that envconfig cannot express.
func (c *Config) Validate() error {
	var errs []error

	if len(c.JWTSecret) < minSecretLen {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLen))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.StoreDriver {
	case StoreSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite store"))
		}
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo store"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreSQLite, StoreMongo, c.StoreDriver))
	}

	switch c.MediaDriver {
	case MediaDisk:
		if c.MediaDir == "" {
			errs = append(errs, errors.New("MEDIA_DIR is required for the disk media store"))
		}
	case MediaS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 media store"))
		}
	default:
		errs = append(errs, fmt.Errorf("MEDIA_DRIVER must be %q or %q, got %q", MediaDisk, MediaS3, c.MediaDriver))
	}

	if c.MaxImages < 1 {
		errs = append(errs, errors.New("MAX_IMAGES must be at least 1"))
	}
	if c.UploadMaxMemory < 1 {
		errs = append(errs, errors.New("UPLOAD_MAX_MEMORY must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsProduction returns true when the server runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}

// NewLogger returns a slog.Logger writing to stdout in the configured format
// and level.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}
	if strings.EqualFold(cfg.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// parseLevel falls back to info for anything it does not recognise.
func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
