// Package main is the entry point for the car listings API server.
//
// main stays small. It reads configuration, builds the logger, opens the
// store and the media host, and hands them to the server. Everything else
// lives in internal/.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/car-listings/internal/config"
	"github.com/sakif/car-listings/internal/media"
	"github.com/sakif/car-listings/internal/repository"
	mongoRepo "github.com/sakif/car-listings/internal/repository/mongo"
	sqliteRepo "github.com/sakif/car-listings/internal/repository/sqlite"
	"github.com/sakif/car-listings/internal/server"
)

func main() {
	// === 1. LOAD .env ===
	// Optional: real environment variables win, and a missing file is fine.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "loading .env: %v\n", err)
		os.Exit(1)
	}

	// === 2. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// === 3. OPEN THE STORE ===
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	// === 4. MEDIA HOST ===
	deps := server.Deps{Store: store}
	switch cfg.MediaDriver {
	case config.MediaS3:
		deps.Media, err = media.NewS3Store(ctx, media.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
	default:
		var disk *media.DiskStore
		disk, err = media.NewDiskStore(cfg.MediaDir, cfg.MediaBaseURL)
		if err == nil {
			deps.Media = disk
			deps.MediaDir = disk.Dir()
		}
	}
	if err != nil {
		store.Close()
		return err
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, deps, logger)
	if err != nil {
		store.Close()
		return err
	}

	// Start blocks until SIGINT/SIGTERM and closes the store on the way out.
	return srv.Start()
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return mongoRepo.New(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		// The data directory is created on first run, like `mkdir -p`.
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		return sqliteRepo.New(cfg.DBPath)
	}
}
