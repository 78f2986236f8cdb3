package batch

import (
	"github.com/xenking/vending-console/internal/domain/catalog"
)

// ComputePricePatch turns a validated price edit into a patch for it.
//
// The ordering rule is checked against the effective values: an edit that
// only sets the original price is compared with the item's stored price.
// Fields the edit leaves unset are absent from the patch.
func ComputePricePatch(it catalog.Item, in PriceInput) (catalog.Patch, error) {
	current := it.Price
	if in.Current != nil {
		current = *in.Current
	}

	original := it.OriginalPrice
	if in.Original != nil {
		original.Decimal = *in.Original
		original.Valid = true
	}

	if original.Valid && !original.Decimal.GreaterThan(current) {
		return catalog.Patch{}, ErrPriceOrder
	}

	return catalog.Patch{
		Price:         in.Current,
		OriginalPrice: in.Original,
	}, nil
}

// salePatch sets only the on-sale flag.
func salePatch(onSale bool) catalog.Patch {
	return catalog.Patch{OnSale: &onSale}
}
