package catalog

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Patch lists the item fields to overwrite. Nil fields are left unchanged.
type Patch struct {
	Price         *decimal.Decimal
	OriginalPrice *decimal.Decimal
	OnSale        *bool
	Currency      *string
	TaxEnabled    *bool
	TaxRate       *decimal.Decimal
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Price == nil && p.OriginalPrice == nil && p.OnSale == nil &&
		p.Currency == nil && p.TaxEnabled == nil && p.TaxRate == nil
}

// Apply returns a copy of it with the patch applied. The result is checked
// against the item invariants.
func (p Patch) Apply(it Item) (Item, error) {
	if p.Price != nil {
		it.Price = *p.Price
	}
	if p.OriginalPrice != nil {
		it.OriginalPrice = decimal.NewNullDecimal(*p.OriginalPrice)
	}
	if p.OnSale != nil {
		it.OnSale = *p.OnSale
	}
	if p.Currency != nil {
		it.Currency = *p.Currency
	}
	if p.TaxEnabled != nil {
		it.TaxEnabled = *p.TaxEnabled
	}
	if p.TaxRate != nil {
		it.TaxRate = *p.TaxRate
	}
	if err := it.check(); err != nil {
		return Item{}, err
	}
	return it, nil
}

func (it Item) check() error {
	if it.Price.IsNegative() {
		return errors.Wrap(ErrInvalidPatch, "price is negative")
	}
	if it.OriginalPrice.Valid && !it.OriginalPrice.Decimal.GreaterThan(it.Price) {
		return errors.Wrap(ErrInvalidPatch, "original price must exceed price")
	}
	if it.TaxRate.IsNegative() {
		return errors.Wrap(ErrInvalidPatch, "tax rate is negative")
	}
	return nil
}
