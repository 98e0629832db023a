package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/mercado-backend/internal/geo"
	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openProducts(t *testing.T) (*gorm.DB, ProductRepository) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "products.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&model.Product{}, &model.ProductImage{}))
	return gdb, NewProductRepository(gdb)
}

func float64Ptr(v float64) *float64 { return &v }

func TestSearchReturnsEveryMatch(t *testing.T) {
	gdb, repo := openProducts(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	list := make([]model.Product, 0, 540)
	for i := 0; i < 540; i++ {
		p := model.Product{
			Title:        fmt.Sprintf("Silla %d", i),
			Description:  "madera",
			Price:        1000,
			CategorySlug: "home",
			SellerUID:    "seller",
			Status:       model.ProductStatusActive,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}
		if i%20 == 0 {
			p.Status = model.ProductStatusSold
		}
		list = append(list, p)
	}
	require.NoError(t, gdb.CreateInBatches(&list, 100).Error)

	q := ProductQuery{Status: model.ProductStatusActive}
	all, err := repo.Search(ctx, q)
	require.NoError(t, err)
	assert.Len(t, all, 513)

	cnt, err := repo.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, int64(513), cnt)

	q.Limit, q.Offset = 20, 510
	tail, err := repo.Search(ctx, q)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	// newest first, so the oldest active listing closes the last page
	assert.Equal(t, "Silla 1", tail[2].Title)

	cnt, err = repo.Count(ctx, ProductQuery{Status: model.ProductStatusActive, Text: "SILLA 53"})
	require.NoError(t, err)
	assert.Equal(t, int64(11), cnt)
}

func TestSearchNearKeepsBoxAndUnplaced(t *testing.T) {
	gdb, repo := openProducts(t)
	ctx := context.Background()
	rows := []model.Product{
		{Title: "centro", Latitude: float64Ptr(-34.6037), Longitude: float64Ptr(-58.3816)},
		{Title: "palermo", Latitude: float64Ptr(-34.5889), Longitude: float64Ptr(-58.4306)},
		{Title: "cordoba", Latitude: float64Ptr(-31.4201), Longitude: float64Ptr(-64.1888)},
		{Title: "sin mapa", Location: "Belgrano, Buenos Aires"},
	}
	for i := range rows {
		rows[i].Description, rows[i].Price, rows[i].CategorySlug, rows[i].SellerUID = "x", 1000, "home", "seller"
		rows[i].Status = model.ProductStatusActive
	}
	require.NoError(t, gdb.Create(&rows).Error)

	box := geo.Around(geo.Point{Lat: -34.6037, Lng: -58.3816}, 10000)
	got, err := repo.Search(ctx, ProductQuery{Status: model.ProductStatusActive, Near: &box})
	require.NoError(t, err)
	titles := make([]string, 0, len(got))
	for _, p := range got {
		titles = append(titles, p.Title)
	}
	assert.ElementsMatch(t, []string{"centro", "palermo", "sin mapa"}, titles)
}
