package repository

import (
	"context"
	"errors"

	"github.com/shinyyama/mercado-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientBalance = errors.New("insufficient balance")

type UserRevenueRepository interface {
	Credit(ctx context.Context, uid string, cents int64) error
	Deduct(ctx context.Context, uid string, cents int64) error
	Get(ctx context.Context, uid string) (*model.UserRevenue, error)
}

type userRevenueRepository struct {
	db *gorm.DB
}

func NewUserRevenueRepository(db *gorm.DB) UserRevenueRepository {
	return &userRevenueRepository{db: db}
}

func (r *userRevenueRepository) Credit(ctx context.Context, uid string, cents int64) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "uid"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance_cents": gorm.Expr("balance_cents + ?", cents),
			"earned_cents":  gorm.Expr("earned_cents + ?", cents),
		}),
	}).Create(&model.UserRevenue{UID: uid, BalanceCents: cents, EarnedCents: cents}).Error
}

func (r *userRevenueRepository) Deduct(ctx context.Context, uid string, cents int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.UserRevenue{}).
		Where("uid = ? AND balance_cents >= ?", uid, cents).
		Update("balance_cents", gorm.Expr("balance_cents - ?", cents))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientBalance
	}
	return nil
}

func (r *userRevenueRepository) Get(ctx context.Context, uid string) (*model.UserRevenue, error) {
	var ur model.UserRevenue
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).FirstOrCreate(&ur, &model.UserRevenue{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &ur, nil
}
