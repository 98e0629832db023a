package repository

import (
	"context"
	"time"

	"github.com/shinyyama/mercado-backend/internal/model"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, p *model.Purchase) error
	FindByID(ctx context.Context, id uint64) (*model.Purchase, error)
	// FindByProduct returns the most recent purchase of the product.
	FindByProduct(ctx context.Context, productID uint64) (*model.Purchase, error)
	CountLiveByProduct(ctx context.Context, productID uint64) (int64, error)
	CountByBuyer(ctx context.Context, buyerUID string) (int64, error)
	Transition(ctx context.Context, id uint64, from []model.PurchaseStatus, to model.PurchaseStatus, at time.Time) error
	ListByBuyer(ctx context.Context, buyerUID string) ([]model.Purchase, error)
	ListBySeller(ctx context.Context, sellerUID string) ([]model.Purchase, error)
}

type purchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) PurchaseRepository {
	return &purchaseRepository{db: db}
}

func (r *purchaseRepository) Create(ctx context.Context, p *model.Purchase) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *purchaseRepository) FindByID(ctx context.Context, id uint64) (*model.Purchase, error) {
	var p model.Purchase
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepository) FindByProduct(ctx context.Context, productID uint64) (*model.Purchase, error) {
	var p model.Purchase
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("id DESC").
		First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *purchaseRepository) CountLiveByProduct(ctx context.Context, productID uint64) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("product_id = ? AND status <> ?", productID, model.PurchaseStatusCanceled).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// CountByBuyer counts non-canceled purchases made by buyerUID.
func (r *purchaseRepository) CountByBuyer(ctx context.Context, buyerUID string) (int64, error) {
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("buyer_uid = ? AND status <> ?", buyerUID, model.PurchaseStatusCanceled).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// Transition moves the purchase to `to` only while it is in one of `from`.
func (r *purchaseRepository) Transition(ctx context.Context, id uint64, from []model.PurchaseStatus, to model.PurchaseStatus, at time.Time) error {
	fields := map[string]interface{}{"status": to}
	switch to {
	case model.PurchaseStatusShipped:
		fields["shipped_at"] = at
	case model.PurchaseStatusDelivered:
		fields["delivered_at"] = at
	}
	res := r.db.WithContext(ctx).
		Model(&model.Purchase{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *purchaseRepository) ListByBuyer(ctx context.Context, buyerUID string) ([]model.Purchase, error) {
	var list []model.Purchase
	if err := r.db.WithContext(ctx).
		Where("buyer_uid = ?", buyerUID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *purchaseRepository) ListBySeller(ctx context.Context, sellerUID string) ([]model.Purchase, error) {
	var list []model.Purchase
	if err := r.db.WithContext(ctx).
		Where("seller_uid = ?", sellerUID).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
