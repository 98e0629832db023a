package repository

import (
	"context"
	"time"

	"github.com/shinyyama/mercado-backend/internal/model"
	"gorm.io/gorm"
)

// Offer boxes: which side of the negotiation the caller is on.
const (
	OfferBoxSent     = "sent"
	OfferBoxReceived = "received"
)

type OfferRepository interface {
	Create(ctx context.Context, o *model.Offer) error
	FindByID(ctx context.Context, id uint64) (*model.Offer, error)
	List(ctx context.Context, uid, box string, status model.OfferStatus) ([]model.Offer, error)
	LatestAccepted(ctx context.Context, productID uint64, buyerUID string) (*model.Offer, error)
	// Decide moves a pending offer to status. ErrConflict when it is no longer pending.
	Decide(ctx context.Context, id uint64, status model.OfferStatus, response string, at time.Time) error
}

type offerRepository struct {
	db *gorm.DB
}

func NewOfferRepository(db *gorm.DB) OfferRepository {
	return &offerRepository{db: db}
}

func (r *offerRepository) Create(ctx context.Context, o *model.Offer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *offerRepository) FindByID(ctx context.Context, id uint64) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepository) List(ctx context.Context, uid, box string, status model.OfferStatus) ([]model.Offer, error) {
	q := r.db.WithContext(ctx).Model(&model.Offer{})
	switch box {
	case OfferBoxSent:
		q = q.Where("buyer_uid = ?", uid)
	case OfferBoxReceived:
		q = q.Where("seller_uid = ?", uid)
	default:
		q = q.Where("buyer_uid = ? OR seller_uid = ?", uid, uid)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var list []model.Offer
	if err := q.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *offerRepository) LatestAccepted(ctx context.Context, productID uint64, buyerUID string) (*model.Offer, error) {
	var o model.Offer
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND buyer_uid = ? AND status = ?", productID, buyerUID, model.OfferStatusAccepted).
		Order("decided_at DESC, id DESC").
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *offerRepository) Decide(ctx context.Context, id uint64, status model.OfferStatus, response string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Offer{}).
		Where("id = ? AND status = ?", id, model.OfferStatusPending).
		Updates(map[string]interface{}{
			"status":     status,
			"response":   response,
			"decided_at": at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}
