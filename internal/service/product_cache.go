package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shinyyama/mercado-backend/internal/cache"
	"github.com/shinyyama/mercado-backend/internal/logging"
	"github.com/shinyyama/mercado-backend/internal/model"
	"go.uber.org/zap"
)

// ProductCache keeps product detail rows (with images) in a Cache.
// Every failure degrades to a database read.
type ProductCache struct {
	c   cache.Cache
	ttl time.Duration
	log *zap.Logger
}

func NewProductCache(c cache.Cache, ttl time.Duration, log *zap.Logger) *ProductCache {
	if c == nil {
		c = cache.Noop{}
	}
	return &ProductCache{c: c, ttl: ttl, log: log}
}

func productKey(id uint64) string {
	return fmt.Sprintf("product:%d", id)
}

func (pc *ProductCache) get(ctx context.Context, id uint64) (*model.Product, bool) {
	raw, err := pc.c.Get(ctx, productKey(id))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			logging.FromContext(ctx, pc.log).Warn("product cache get failed", zap.Uint64("product_id", id), zap.Error(err))
		}
		return nil, false
	}
	var p model.Product
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		pc.drop(ctx, id)
		return nil, false
	}
	return &p, true
}

func (pc *ProductCache) put(ctx context.Context, p *model.Product) {
	raw, err := json.Marshal(p)
	if err != nil {
		return
	}
	if err := pc.c.Set(ctx, productKey(p.ID), string(raw), pc.ttl); err != nil {
		logging.FromContext(ctx, pc.log).Warn("product cache set failed", zap.Uint64("product_id", p.ID), zap.Error(err))
	}
}

func (pc *ProductCache) drop(ctx context.Context, id uint64) {
	if err := pc.c.Del(ctx, productKey(id)); err != nil {
		logging.FromContext(ctx, pc.log).Warn("product cache del failed", zap.Uint64("product_id", id), zap.Error(err))
	}
}
