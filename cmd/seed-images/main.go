// Command seed-images copies listing photos hosted elsewhere into the
// marketplace bucket and points product_images at the copies.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"github.com/shinyyama/mercado-backend/internal/config"
	"github.com/shinyyama/mercado-backend/internal/db"
	"github.com/shinyyama/mercado-backend/internal/logging"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	TimeoutSeconds int  `env:"TIMEOUT_SECONDS" envDefault:"300"`
	UpdateAll      bool `env:"UPDATE_ALL" envDefault:"false"`
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed-images failed: %v", err)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var opts Options
	if err := env.Parse(&opts); err != nil {
		return fmt.Errorf("parse options: %w", err)
	}
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.TimeoutSeconds)*time.Second)
	defer cancel()

	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	uploader, err := storage.NewGCSUploader(ctx, cfg.StorageBucket)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer uploader.Close()

	var images []model.ProductImage
	q := gdb.WithContext(ctx).Model(&model.ProductImage{}).Order("product_id ASC, position ASC")
	if !opts.UpdateAll {
		q = q.Where("image_url NOT LIKE ?", storage.PublicURL(cfg.StorageBucket, "")+"%")
	}
	if err := q.Find(&images).Error; err != nil {
		return fmt.Errorf("list images: %w", err)
	}
	logger.Info("mirroring product images", zap.Int("images", len(images)), zap.Bool("update_all", opts.UpdateAll))

	client := &http.Client{Timeout: 30 * time.Second}
	var copied, failed int
	for _, img := range images {
		l := logger.With(zap.Uint64("product_id", img.ProductID), zap.Uint64("image_id", img.ID))
		publicURL, err := mirror(ctx, client, uploader, img.ImageURL)
		if err != nil {
			l.Warn("mirror failed", zap.String("source", img.ImageURL), zap.Error(err))
			failed++
			continue
		}
		if err := setImageURL(ctx, gdb, img.ID, publicURL); err != nil {
			l.Warn("db update failed", zap.Error(err))
			failed++
			continue
		}
		l.Info("image mirrored", zap.String("url", publicURL))
		copied++
	}
	logger.Info("seed-images completed", zap.Int("copied", copied), zap.Int("failed", failed))
	return nil
}

func mirror(ctx context.Context, client *http.Client, up storage.Uploader, source string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("source status %d", resp.StatusCode)
	}
	contentType := resp.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	return up.Upload(ctx, contentType, resp.Body)
}

func setImageURL(ctx context.Context, gdb *gorm.DB, id uint64, url string) error {
	return gdb.WithContext(ctx).Model(&model.ProductImage{}).Where("id = ?", id).Update("image_url", url).Error
}
