package service

import (
	"context"
	"testing"

	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() ProductInput {
	return ProductInput{
		Title:             "Campera de Cuero Vintage",
		Description:       "Talle M, excelente estado",
		Price:             45000,
		CategorySlug:      "clothing",
		Location:          "Palermo, Buenos Aires",
		SecurePayment:     true,
		FreeFirstShipping: true,
		AutoOffers:        true,
		MinOfferPrice:     int64Ptr(40000),
		ImageURLs:         []string{" https://img.example/a.jpg ", "", "https://img.example/b.jpg"},
	}
}

func TestPublish(t *testing.T) {
	m := newMarket(t)
	p, err := m.catalog.Publish(context.Background(), "seller", validInput())
	require.NoError(t, err)
	assert.NotZero(t, p.ID)
	assert.Equal(t, model.ProductStatusActive, p.Status)
	assert.Equal(t, "seller", p.SellerUID)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "https://img.example/a.jpg", p.Images[0].ImageURL)
	assert.Equal(t, 1, p.Images[1].Position)
	assert.Equal(t, DefaultAutoAcceptMessage, p.AutoAcceptMessage)
	assert.Equal(t, DefaultAutoRejectMessage, p.AutoRejectMessage)
	assert.True(t, p.AutoOffers())
}

func TestPublishManualOffersDropsMinimum(t *testing.T) {
	m := newMarket(t)
	in := validInput()
	in.AutoOffers = false
	p, err := m.catalog.Publish(context.Background(), "seller", in)
	require.NoError(t, err)
	assert.Nil(t, p.MinOfferPrice)
	assert.False(t, p.AutoOffers())
	assert.Empty(t, p.AutoAcceptMessage)
}

func TestPublishValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ProductInput)
	}{
		{"empty title", func(in *ProductInput) { in.Title = "   " }},
		{"no description", func(in *ProductInput) { in.Description = "" }},
		{"zero price", func(in *ProductInput) { in.Price = 0 }},
		{"all category", func(in *ProductInput) { in.CategorySlug = model.CategoryAll }},
		{"unknown category", func(in *ProductInput) { in.CategorySlug = "cars" }},
		{"no images", func(in *ProductInput) { in.ImageURLs = []string{" "} }},
		{"data uri", func(in *ProductInput) { in.ImageURLs = []string{"data:image/png;base64,AAAA"} }},
		{"missing minimum", func(in *ProductInput) { in.MinOfferPrice = nil }},
		{"minimum equals price", func(in *ProductInput) { in.MinOfferPrice = int64Ptr(45000) }},
		{"minimum zero", func(in *ProductInput) { in.MinOfferPrice = int64Ptr(0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newMarket(t)
			in := validInput()
			tt.mutate(&in)
			_, err := m.catalog.Publish(context.Background(), "seller", in)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestUpdate(t *testing.T) {
	m := newMarket(t, sampleProduct(1, 45000))
	ctx := context.Background()

	_, err := m.catalog.Get(ctx, 1)
	require.NoError(t, err)
	require.Contains(t, m.cache.data, "product:1")

	in := validInput()
	_, err = m.catalog.Update(ctx, "buyer", 1, in)
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := m.catalog.Update(ctx, "seller", 1, in)
	require.NoError(t, err)
	assert.Equal(t, in.Title, p.Title)
	assert.NotContains(t, m.cache.data, "product:1")

	_, err = m.catalog.Update(ctx, "seller", 42, in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReadsThroughCache(t *testing.T) {
	m := newMarket(t, sampleProduct(1, 45000))
	ctx := context.Background()

	v, err := m.catalog.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, v.Seller)
	assert.Equal(t, "Martín", v.Seller.Name)

	delete(m.products.rows, 1)
	v, err = m.catalog.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(45000), v.Product.Price)
	assert.Equal(t, 1, m.cache.hits)
	require.Len(t, v.Product.Images, 1)

	_, err = m.catalog.Get(ctx, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersAndRanks(t *testing.T) {
	near := sampleProduct(1, 1000)
	near.Latitude, near.Longitude = float64Ptr(-34.5950), float64Ptr(-58.4000)
	far := sampleProduct(2, 1000)
	far.Latitude, far.Longitude = float64Ptr(-31.4201), float64Ptr(-64.1888)
	sameRegion := sampleProduct(3, 1000)
	sameRegion.Location = "Belgrano, Buenos Aires"
	elsewhere := sampleProduct(4, 1000)
	elsewhere.Location = "Rosario, Santa Fe"
	other := sampleProduct(5, 1000)
	other.CategorySlug = "electronics"
	other.Title = "iPhone 13 Pro"
	sold := sampleProduct(6, 1000)
	sold.Status = model.ProductStatusSold

	m := newMarket(t, near, far, sameRegion, elsewhere, other, sold)
	ctx := context.Background()

	all, total, err := m.catalog.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, all, 5)

	sports, total, err := m.catalog.List(ctx, ProductFilter{Category: "sports"})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, sports, 4)

	found, _, err := m.catalog.List(ctx, ProductFilter{Query: "IPHONE"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, uint64(5), found[0].Product.ID)

	nearby, total, err := m.catalog.List(ctx, ProductFilter{
		Category: "sports",
		Radius:   5000,
		Lat:      float64Ptr(-34.6037),
		Lng:      float64Ptr(-58.3816),
		Location: "Microcentro, Buenos Aires",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	ids := make([]uint64, 0, len(nearby))
	for _, v := range nearby {
		ids = append(ids, v.Product.ID)
	}
	assert.Equal(t, []uint64{1, 3, 4}, ids)
	require.NotNil(t, nearby[0].Distance)
	assert.Nil(t, nearby[1].Distance)

	page, total, err := m.catalog.List(ctx, ProductFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, page, 1)

	_, _, err = m.catalog.List(ctx, ProductFilter{Radius: 750})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListReachesEveryActiveProduct(t *testing.T) {
	list := make([]model.Product, 0, 620)
	for i := uint64(1); i <= 620; i++ {
		p := sampleProduct(i, 1000)
		if i%31 == 0 {
			p.Status = model.ProductStatusSold
		}
		list = append(list, p)
	}
	m := newMarket(t, list...)
	ctx := context.Background()

	page, total, err := m.catalog.List(ctx, ProductFilter{Limit: 20, Offset: 580})
	require.NoError(t, err)
	assert.Equal(t, 600, total)
	require.Len(t, page, 20)
	// newest first, so the last page holds the oldest listings
	assert.Equal(t, uint64(1), page[len(page)-1].Product.ID)

	last := m.products.searches[len(m.products.searches)-1]
	assert.Equal(t, 20, last.Limit)
	assert.Equal(t, 580, last.Offset)
	assert.Nil(t, last.Near)

	_, total, err = m.catalog.List(ctx, ProductFilter{
		Radius: 10000,
		Lat:    float64Ptr(-34.6037),
		Lng:    float64Ptr(-58.3816),
	})
	require.NoError(t, err)
	assert.Equal(t, 600, total)
	last = m.products.searches[len(m.products.searches)-1]
	assert.Zero(t, last.Limit)
	require.NotNil(t, last.Near)
}

func TestFavorites(t *testing.T) {
	m := newMarket(t, sampleProduct(1, 45000), sampleProduct(2, 1000))
	ctx := context.Background()

	on, err := m.catalog.ToggleFavorite(ctx, "buyer", 1)
	require.NoError(t, err)
	assert.True(t, on)
	_, err = m.catalog.ToggleFavorite(ctx, "buyer", 2)
	require.NoError(t, err)

	favs, err := m.catalog.ListFavorites(ctx, "buyer")
	require.NoError(t, err)
	require.Len(t, favs, 2)
	assert.Equal(t, uint64(2), favs[0].ID)

	off, err := m.catalog.ToggleFavorite(ctx, "buyer", 1)
	require.NoError(t, err)
	assert.False(t, off)

	_, err = m.catalog.ToggleFavorite(ctx, "buyer", 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListBySellerIncludesSold(t *testing.T) {
	sold := sampleProduct(2, 1000)
	sold.Status = model.ProductStatusSold
	m := newMarket(t, sampleProduct(1, 45000), sold)
	list, err := m.catalog.ListBySeller(context.Background(), "seller")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
