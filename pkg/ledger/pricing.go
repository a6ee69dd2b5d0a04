package ledger

import "github.com/survivzhang/Tarot-Reading-Platform/pkg/domain"

// Regional price list. readingsGranted is fixed at order-creation time from
// this table; webhook confirmation never recomputes it.
type tierPricing struct {
	Price    float64
	Readings int
}

type regionalPricing struct {
	Tips     []float64
	Single   tierPricing
	Bundle   tierPricing
	Lifetime float64
}

var pricing = map[domain.Region]regionalPricing{
	domain.RegionCN: {
		Tips:     []float64{1, 5},
		Single:   tierPricing{Price: 2, Readings: 1},
		Bundle:   tierPricing{Price: 10, Readings: 10},
		Lifetime: 99,
	},
	domain.RegionUS: {
		Tips:     []float64{1, 5},
		Single:   tierPricing{Price: 1, Readings: 1},
		Bundle:   tierPricing{Price: 5, Readings: 10},
		Lifetime: 99,
	},
}

// CurrencyFor maps a region to its settlement currency.
func CurrencyFor(region domain.Region) domain.Currency {
	if region == domain.RegionCN {
		return domain.CurrencyCNY
	}
	return domain.CurrencyUSD
}

// ReadingsToGrant computes the credits a transaction will yield once it
// completes. A tip grants one free reading iff it is at least one whole
// unit of currency. Lifetime upgrades grant none; the membership flag
// carries the entitlement.
func ReadingsToGrant(t domain.TransactionType, amount float64, region domain.Region) int {
	p := pricing[region]
	switch t {
	case domain.TransactionTip:
		if amount >= 1 {
			return 1
		}
		return 0
	case domain.TransactionSingle:
		return p.Single.Readings
	case domain.TransactionBundle:
		return p.Bundle.Readings
	default:
		return 0
	}
}

// PricingOption is one purchasable item as shown to the client.
type PricingOption struct {
	Type            domain.TransactionType `json:"type"`
	Amount          float64                `json:"amount"`
	Currency        domain.Currency        `json:"currency"`
	ReadingsGranted int                    `json:"readings_granted"`
	IsLifetime      bool                   `json:"is_lifetime,omitempty"`
}

// Options returns the purchase tiers for a region.
func Options(region domain.Region) []PricingOption {
	p := pricing[region]
	cur := CurrencyFor(region)
	return []PricingOption{
		{Type: domain.TransactionSingle, Amount: p.Single.Price, Currency: cur, ReadingsGranted: p.Single.Readings},
		{Type: domain.TransactionBundle, Amount: p.Bundle.Price, Currency: cur, ReadingsGranted: p.Bundle.Readings},
		{Type: domain.TransactionLifetime, Amount: p.Lifetime, Currency: cur, IsLifetime: true},
	}
}

// TipOptions returns the suggested tip amounts for a region.
func TipOptions(region domain.Region) []PricingOption {
	p := pricing[region]
	cur := CurrencyFor(region)
	opts := make([]PricingOption, 0, len(p.Tips))
	for _, amount := range p.Tips {
		opts = append(opts, PricingOption{
			Type:            domain.TransactionTip,
			Amount:          amount,
			Currency:        cur,
			ReadingsGranted: ReadingsToGrant(domain.TransactionTip, amount, region),
		})
	}
	return opts
}
