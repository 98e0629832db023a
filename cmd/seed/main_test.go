package main

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/mercado-backend/internal/db"
	"github.com/shinyyama/mercado-backend/internal/fixtures"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "seed.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	return gdb
}

func TestSeededTablesCoverEveryMigratedTable(t *testing.T) {
	gdb := openTestDB(t)
	tables, err := gdb.Migrator().GetTables()
	require.NoError(t, err)
	for _, table := range tables {
		if strings.HasPrefix(table, "sqlite_") {
			continue
		}
		assert.Contains(t, seededTables, table)
	}

	// rows pointing at products and users go before them
	pos := func(name string) int { return slices.Index(seededTables, name) }
	for _, child := range []string{"purchases", "offers", "favorites", "conversations", "product_images"} {
		assert.Less(t, pos(child), pos("products"), child)
	}
	assert.Less(t, pos("user_revenues"), pos("users"))
}

func TestForcedSeedDropsPurchasesAndBalances(t *testing.T) {
	gdb := openTestDB(t)
	ctx := context.Background()
	ds := fixtures.Build(time.Now())
	require.NoError(t, seed(ctx, gdb, &ds, false))

	require.NoError(t, gdb.Model(&model.Product{}).Where("id = ?", 1).Update("status", model.ProductStatusSold).Error)
	require.NoError(t, gdb.Create(&model.Purchase{
		ProductID:      1,
		BuyerUID:       "buyer-9",
		SellerUID:      ds.Products[0].SellerUID,
		PaymentMethod:  model.PaymentSalamePay,
		ShippingMethod: pricing.ShippingExpress,
		ItemPrice:      ds.Products[0].Price,
		ShippingCost:   899,
		Total:          ds.Products[0].Price + 899,
		Status:         model.PurchaseStatusPendingShipment,
	}).Error)
	require.NoError(t, gdb.Create(&model.UserRevenue{UID: ds.Products[0].SellerUID, BalanceCents: 5000, EarnedCents: 5000}).Error)

	again := fixtures.Build(time.Now())
	require.NoError(t, seed(ctx, gdb, &again, true))

	var p model.Product
	require.NoError(t, gdb.First(&p, 1).Error)
	assert.Equal(t, model.ProductStatusActive, p.Status)

	var purchases, balances, products int64
	require.NoError(t, gdb.Model(&model.Purchase{}).Count(&purchases).Error)
	require.NoError(t, gdb.Model(&model.UserRevenue{}).Count(&balances).Error)
	require.NoError(t, gdb.Model(&model.Product{}).Count(&products).Error)
	assert.Zero(t, purchases)
	assert.Zero(t, balances)
	assert.Equal(t, int64(len(again.Products)), products)
}
