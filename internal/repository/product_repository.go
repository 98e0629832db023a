package repository

import (
	"context"
	"strings"

	"github.com/shinyyama/mercado-backend/internal/geo"
	"github.com/shinyyama/mercado-backend/internal/model"
	"gorm.io/gorm"
)

// ProductQuery narrows a catalog scan. Zero values mean "no filter".
type ProductQuery struct {
	CategorySlug string
	Text         string
	Status       model.ProductStatus
	SellerUID    string
	// Near keeps products inside the box plus those without coordinates.
	Near *geo.Box
	// Limit <= 0 returns every match.
	Limit  int
	Offset int
}

type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	Update(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uint64) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Product, error)
	Search(ctx context.Context, q ProductQuery) ([]model.Product, error)
	SetStatusIf(ctx context.Context, id uint64, from, to model.ProductStatus) error
	Count(ctx context.Context, q ProductQuery) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC, id ASC")
}

func (r *productRepository) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Update saves scalar fields and replaces the image list.
func (r *productRepository) Update(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Images").Save(p).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", p.ID).Delete(&model.ProductImage{}).Error; err != nil {
			return err
		}
		for i := range p.Images {
			p.Images[i].ID = 0
			p.Images[i].ProductID = p.ID
		}
		if len(p.Images) == 0 {
			return nil
		}
		return tx.Create(&p.Images).Error
	})
}

func (r *productRepository) FindByID(ctx context.Context, id uint64) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Preload("Images", orderedImages).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) FindByIDs(ctx context.Context, ids []uint64) (map[uint64]model.Product, error) {
	out := make(map[uint64]model.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []model.Product
	if err := r.db.WithContext(ctx).Preload("Images", orderedImages).Where("id IN ?", ids).Find(&list).Error; err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepository) Search(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	tx := r.filtered(ctx, q).Preload("Images", orderedImages).Order("created_at DESC, id DESC")
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
		if q.Offset > 0 {
			tx = tx.Offset(q.Offset)
		}
	}
	var list []model.Product
	if err := tx.Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepository) filtered(ctx context.Context, q ProductQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&model.Product{})
	if q.CategorySlug != "" && q.CategorySlug != model.CategoryAll {
		tx = tx.Where("category_slug = ?", q.CategorySlug)
	}
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.SellerUID != "" {
		tx = tx.Where("seller_uid = ?", q.SellerUID)
	}
	if text := strings.TrimSpace(q.Text); text != "" {
		like := "%" + escapeLike(strings.ToLower(text)) + "%"
		tx = tx.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ?)", like, like)
	}
	if b := q.Near; b != nil {
		if b.AllLng {
			tx = tx.Where("(latitude IS NULL OR longitude IS NULL OR latitude BETWEEN ? AND ?)", b.MinLat, b.MaxLat)
		} else {
			tx = tx.Where("(latitude IS NULL OR longitude IS NULL OR (latitude BETWEEN ? AND ? AND longitude BETWEEN ? AND ?))",
				b.MinLat, b.MaxLat, b.MinLng, b.MaxLng)
		}
	}
	return tx
}

func (r *productRepository) SetStatusIf(ctx context.Context, id uint64, from, to model.ProductStatus) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *productRepository) Count(ctx context.Context, q ProductQuery) (int64, error) {
	var cnt int64
	if err := r.filtered(ctx, q).Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
