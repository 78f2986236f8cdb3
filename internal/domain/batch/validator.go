package batch

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrPriceOrder is returned when an original price does not exceed the
	// current price it is paired with.
	ErrPriceOrder = errors.New("original price must exceed current price")
	// ErrEmptyPriceInput is returned when neither price field is filled in.
	ErrEmptyPriceInput = errors.New("enter a current price or an original price")
)

// Price input field names used in ParseError.
const (
	FieldCurrentPrice  = "currentPrice"
	FieldOriginalPrice = "originalPrice"
	FieldTaxRate       = "taxRate"
)

// ParseError reports raw operator input that is not a non-negative amount
// with at most 10 integer digits and 2 decimal places.
type ParseError struct {
	Field string
	Raw   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid non-negative amount with at most 2 decimal places", e.Field, e.Raw)
}

// PriceInput is a validated batch price edit. Nil fields keep the stored value.
type PriceInput struct {
	Current  *decimal.Decimal
	Original *decimal.Decimal
}

// ValidatePrice parses the raw form values of a batch price edit.
//
// When both prices are given they are compared with each other. When only
// the original price is given the comparison against each item's stored
// price happens later, in ComputePricePatch.
func ValidatePrice(rawCurrent, rawOriginal string) (PriceInput, error) {
	current, err := parseAmount(FieldCurrentPrice, rawCurrent)
	if err != nil {
		return PriceInput{}, err
	}
	original, err := parseAmount(FieldOriginalPrice, rawOriginal)
	if err != nil {
		return PriceInput{}, err
	}
	if current == nil && original == nil {
		return PriceInput{}, ErrEmptyPriceInput
	}
	if current != nil && original != nil && !original.GreaterThan(*current) {
		return PriceInput{}, ErrPriceOrder
	}
	return PriceInput{Current: current, Original: original}, nil
}

// Amount bounds match the NUMERIC(12,2) price columns.
const (
	maxAmountScale         = 2
	maxAmountIntegerDigits = 10
	maxAmountLen           = 32
)

// parseAmount returns nil for blank input. Values that do not fit
// NUMERIC(12,2) are rejected before any arithmetic touches them.
func parseAmount(field, raw string) (*decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, nil
	}
	perr := &ParseError{Field: field, Raw: raw}
	if len(s) > maxAmountLen {
		return nil, perr
	}
	v, err := decimal.NewFromString(s)
	if err != nil || v.IsNegative() {
		return nil, perr
	}
	if v.IsZero() {
		zero := decimal.Zero
		return &zero, nil
	}

	// Inspect coefficient and exponent only: rescaling 1e50000000 would
	// allocate a huge integer.
	digits := int64(len(v.Coefficient().String()))
	exp := int64(v.Exponent())
	if digits+exp > maxAmountIntegerDigits {
		return nil, perr
	}
	if exp < -maxAmountScale {
		// Extra fractional digits are fine only when they are trailing zeros.
		if -exp-maxAmountScale >= digits || !v.Equal(v.Truncate(maxAmountScale)) {
			return nil, perr
		}
		v = v.Truncate(maxAmountScale)
	}
	return &v, nil
}
