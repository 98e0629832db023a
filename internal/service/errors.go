package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shinyyama/mercado-backend/internal/events"
	"github.com/shinyyama/mercado-backend/internal/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidOffer       = errors.New("invalid offer")
	ErrOfferNotPending    = errors.New("offer is no longer pending")
	ErrProductUnavailable = errors.New("product is not available")
	ErrOwnProduct         = errors.New("cannot act on your own product")
	ErrAlreadyPurchased   = errors.New("already_purchased")
	ErrInvalidState       = errors.New("invalid state transition")
	ErrInsufficientFunds  = errors.New("insufficient balance")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// notFound maps a missing row to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func uint64Ptr(v uint64) *uint64 {
	return &v
}

// publish sends a domain event. Failures are logged, never returned.
func publish(ctx context.Context, log *zap.Logger, pub events.Publisher, subject string, payload any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, subject, payload); err != nil {
		logging.FromContext(ctx, log).Warn("publish event failed", zap.String("subject", subject), zap.Error(err))
	}
}
