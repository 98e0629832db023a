package repository

import (
	"context"

	"github.com/shinyyama/mercado-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	FindByUID(ctx context.Context, uid string) (*model.User, error)
	FindByUIDs(ctx context.Context, uids []string) (map[string]model.User, error)
	FirstOrCreate(ctx context.Context, uid string) (*model.User, error)
	Save(ctx context.Context, u *model.User) error
	IncrementSales(ctx context.Context, uid string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUID(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByUIDs(ctx context.Context, uids []string) (map[string]model.User, error) {
	out := make(map[string]model.User, len(uids))
	if len(uids) == 0 {
		return out, nil
	}
	var list []model.User
	if err := r.db.WithContext(ctx).Where("uid IN ?", uids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, u := range list {
		out[u.UID] = u
	}
	return out, nil
}

func (r *userRepository) FirstOrCreate(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		FirstOrCreate(&u, &model.User{UID: uid}).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Save(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(u).Error
}

func (r *userRepository) IncrementSales(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("uid = ?", uid).
		Update("total_sales", gorm.Expr("total_sales + 1")).Error
}
