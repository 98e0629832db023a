package pricing

import "errors"

var ErrUnknownShipping = errors.New("unknown shipping method")

const (
	ShippingExpress  = "dhl_express"
	ShippingStandard = "standard"
)

var shippingRates = map[string]int64{
	ShippingExpress:  899,
	ShippingStandard: 499,
}

// ShippingMethods lists the methods in display order.
func ShippingMethods() []string {
	return []string{ShippingExpress, ShippingStandard}
}

func ShippingRate(method string) (int64, error) {
	rate, ok := shippingRates[method]
	if !ok {
		return 0, ErrUnknownShipping
	}
	return rate, nil
}

// ShippingCost returns the charge for method. A buyer's first purchase ships
// free when the listing opts into it.
func ShippingCost(method string, firstPurchase, freeFirstEnabled bool) (int64, error) {
	rate, err := ShippingRate(method)
	if err != nil {
		return 0, err
	}
	if firstPurchase && freeFirstEnabled {
		return 0, nil
	}
	return rate, nil
}

type Quote struct {
	ItemPrice    int64 `json:"itemPrice"`
	ShippingCost int64 `json:"shippingCost"`
	Total        int64 `json:"total"`
	FreeShipping bool  `json:"freeShipping"`
}

func NewQuote(itemPrice int64, method string, firstPurchase, freeFirstEnabled bool) (Quote, error) {
	cost, err := ShippingCost(method, firstPurchase, freeFirstEnabled)
	if err != nil {
		return Quote{}, err
	}
	return Quote{
		ItemPrice:    itemPrice,
		ShippingCost: cost,
		Total:        itemPrice + cost,
		FreeShipping: cost == 0,
	}, nil
}
