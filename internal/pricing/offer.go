package pricing

import (
	"errors"
	"math"
)

var ErrInvalidOffer = errors.New("offer must be greater than zero and below the list price")

type Decision string

const (
	DecisionPending  Decision = "pending"
	DecisionAccepted Decision = "accepted"
	DecisionRejected Decision = "rejected"
)

// Quick-pick fractions of the list price offered to buyers, first one is the default.
var suggestionPercents = []int64{90, 85, 80}

// EvaluateOffer applies the automatic offer rule. Without a minimum the
// seller decides manually and the offer stays pending.
func EvaluateOffer(price int64, minOffer *int64, amount int64) (Decision, error) {
	if amount <= 0 || amount >= price {
		return "", ErrInvalidOffer
	}
	if minOffer == nil {
		return DecisionPending, nil
	}
	if amount >= *minOffer {
		return DecisionAccepted, nil
	}
	return DecisionRejected, nil
}

func DefaultOffer(price int64) int64 {
	return percentOf(price, suggestionPercents[0])
}

func SuggestedOffers(price int64) []int64 {
	out := make([]int64, 0, len(suggestionPercents))
	for _, pct := range suggestionPercents {
		out = append(out, percentOf(price, pct))
	}
	return out
}

// DiscountPercent is the rounded discount an offer represents off the list price.
func DiscountPercent(price, amount int64) int {
	if price <= 0 {
		return 0
	}
	return int(math.Round((1 - float64(amount)/float64(price)) * 100))
}

func MinOfferPercent(price, minOffer int64) int {
	if price <= 0 || minOffer <= 0 {
		return 0
	}
	return int(math.Round(float64(minOffer) / float64(price) * 100))
}

func MinOfferForPercent(price int64, pct int) int64 {
	if price <= 0 || pct <= 0 {
		return 0
	}
	return percentOf(price, int64(pct))
}

func percentOf(v, pct int64) int64 {
	return int64(math.Round(float64(v) * float64(pct) / 100))
}
