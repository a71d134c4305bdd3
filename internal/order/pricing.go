package order

import "github.com/shopspring/decimal"

// PricingPolicy holds the shipping and tax constants. Amounts are in major
// currency units.
type PricingPolicy struct {
	FreeShippingThreshold decimal.Decimal
	FlatShippingFee       decimal.Decimal
	TaxRate               decimal.Decimal
}

func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		FreeShippingThreshold: decimal.NewFromInt(500),
		FlatShippingFee:       decimal.NewFromInt(50),
		TaxRate:               decimal.RequireFromString("0.18"),
	}
}

type Pricing struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

const moneyPlaces = 2

// PriceOrder computes the order totals once. Shipping is free strictly above
// the threshold; tax is rounded half away from zero to two places and the
// total is the exact sum of the three parts.
func PriceOrder(items []LineItem, policy PricingPolicy) Pricing {
	itemsPrice := decimal.Zero
	for _, it := range items {
		itemsPrice = itemsPrice.Add(it.Subtotal())
	}

	shipping := policy.FlatShippingFee
	if itemsPrice.GreaterThan(policy.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	tax := itemsPrice.Mul(policy.TaxRate).Round(moneyPlaces)

	return Pricing{
		ItemsPrice:    itemsPrice,
		ShippingPrice: shipping,
		TaxPrice:      tax,
		TotalPrice:    itemsPrice.Add(shipping).Add(tax),
	}
}
