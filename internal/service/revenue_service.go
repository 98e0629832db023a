package service

import (
	"context"
	"errors"

	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/shinyyama/mercado-backend/internal/repository"
)

type RevenueService interface {
	Get(ctx context.Context, uid string) (*model.UserRevenue, error)
	Withdraw(ctx context.Context, uid string, cents int64) (*model.UserRevenue, error)
	Credit(ctx context.Context, uid string, cents int64) error
}

type revenueService struct {
	repo repository.UserRevenueRepository
}

func NewRevenueService(repo repository.UserRevenueRepository) RevenueService {
	return &revenueService{repo: repo}
}

func (s *revenueService) Get(ctx context.Context, uid string) (*model.UserRevenue, error) {
	return s.repo.Get(ctx, uid)
}

func (s *revenueService) Withdraw(ctx context.Context, uid string, cents int64) (*model.UserRevenue, error) {
	if cents <= 0 {
		return nil, invalid("amount must be positive")
	}
	if err := s.repo.Deduct(ctx, uid, cents); err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}
	return s.Get(ctx, uid)
}

func (s *revenueService) Credit(ctx context.Context, uid string, cents int64) error {
	if cents <= 0 {
		return nil
	}
	return s.repo.Credit(ctx, uid, cents)
}
