package repository

import (
	"context"

	"github.com/shinyyama/mercado-backend/internal/model"
	"gorm.io/gorm"
)

type FavoriteRepository interface {
	// Toggle adds the favorite when missing and removes it otherwise; it
	// reports whether the product is a favorite afterwards.
	Toggle(ctx context.Context, uid string, productID uint64) (bool, error)
	Exists(ctx context.Context, uid string, productID uint64) (bool, error)
	ListProductIDs(ctx context.Context, uid string) ([]uint64, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Toggle(ctx context.Context, uid string, productID uint64) (bool, error) {
	var added bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("uid = ? AND product_id = ?", uid, productID).Delete(&model.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		added = true
		return tx.Create(&model.Favorite{UID: uid, ProductID: productID}).Error
	})
	return added, err
}

func (r *favoriteRepository) Exists(ctx context.Context, uid string, productID uint64) (bool, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Favorite{}).
		Where("uid = ? AND product_id = ?", uid, productID).
		Count(&cnt).Error; err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *favoriteRepository) ListProductIDs(ctx context.Context, uid string) ([]uint64, error) {
	var ids []uint64
	if err := r.db.WithContext(ctx).
		Model(&model.Favorite{}).
		Where("uid = ?", uid).
		Order("created_at DESC").
		Pluck("product_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
