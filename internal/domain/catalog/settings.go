package catalog

import "github.com/shopspring/decimal"

// PricingSettings are the menu-wide currency and tax defaults pushed onto
// every item.
type PricingSettings struct {
	Currency   string
	TaxEnabled bool
	// TaxRate is a fraction: 0.1 means 10%.
	TaxRate decimal.Decimal
}

// Patch converts the settings into an item patch.
func (s PricingSettings) Patch() Patch {
	currency := s.Currency
	enabled := s.TaxEnabled
	rate := s.TaxRate
	return Patch{
		Currency:   &currency,
		TaxEnabled: &enabled,
		TaxRate:    &rate,
	}
}
