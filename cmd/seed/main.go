package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/mercado-backend/internal/config"
	"github.com/shinyyama/mercado-backend/internal/db"
	"github.com/shinyyama/mercado-backend/internal/fixtures"
	"github.com/shinyyama/mercado-backend/internal/logging"
	"github.com/shinyyama/mercado-backend/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Child tables first so a forced reseed can clear them in order. Every
// migrated table is listed: fixtures reuse product ids, so a leftover
// purchase or balance would attach to the fresh rows.
var seededTables = []string{
	"purchases",
	"user_revenues",
	"notifications",
	"offers",
	"messages",
	"conversation_states",
	"conversations",
	"favorites",
	"product_images",
	"products",
	"users",
	"categories",
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(cfg.AppEnv)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	force := strings.EqualFold(os.Getenv("FORCE_SEED"), "true")
	cnt, err := repository.NewProductRepository(gdb).Count(ctx, repository.ProductQuery{})
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if cnt > 0 && !force {
		logger.Info("products already exist; skipping seed (set FORCE_SEED=true to override)", zap.Int64("products", cnt))
		return nil
	}

	ds := fixtures.Build(time.Now())
	if err := seed(ctx, gdb, &ds, force); err != nil {
		return err
	}

	logger.Info("seeded demo data",
		zap.Int("categories", len(ds.Categories)),
		zap.Int("users", len(ds.Users)),
		zap.Int("products", len(ds.Products)),
		zap.Int("conversations", len(ds.Conversations)),
		zap.Int("offers", len(ds.Offers)),
		zap.Int("notifications", len(ds.Notifications)),
	)
	return nil
}

// seed inserts ds in one transaction, first clearing every seeded table when force is set.
func seed(ctx context.Context, gdb *gorm.DB, ds *fixtures.Dataset, force bool) error {
	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if force {
			for _, table := range seededTables {
				if err := tx.Exec("DELETE FROM " + table).Error; err != nil {
					return fmt.Errorf("clear %s: %w", table, err)
				}
			}
		}
		return insertDataset(tx, ds)
	})
}

func insertDataset(tx *gorm.DB, ds *fixtures.Dataset) error {
	steps := []struct {
		name string
		rows any
		n    int
	}{
		{"categories", &ds.Categories, len(ds.Categories)},
		{"users", &ds.Users, len(ds.Users)},
		{"products", &ds.Products, len(ds.Products)},
		{"favorites", &ds.Favorites, len(ds.Favorites)},
		{"conversations", &ds.Conversations, len(ds.Conversations)},
		{"messages", &ds.Messages, len(ds.Messages)},
		{"conversation states", &ds.States, len(ds.States)},
		{"offers", &ds.Offers, len(ds.Offers)},
		{"notifications", &ds.Notifications, len(ds.Notifications)},
	}
	for _, s := range steps {
		if s.n == 0 {
			continue
		}
		if err := tx.Create(s.rows).Error; err != nil {
			return fmt.Errorf("insert %s: %w", s.name, err)
		}
	}
	return nil
}
