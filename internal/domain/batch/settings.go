package batch

import (
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

// ErrTaxRateRange is returned when a tax percentage is above 100.
var ErrTaxRateRange = errors.New("tax rate must be between 0 and 100 percent")

// Currencies lists the menu currencies the devices can display.
var Currencies = []string{"CNY", "USD", "EUR", "JPY", "GBP", "HKD", "SGD", "KRW"}

// UnsupportedCurrencyError reports a currency code outside Currencies.
type UnsupportedCurrencyError struct {
	Currency string
}

func (e *UnsupportedCurrencyError) Error() string {
	return fmt.Sprintf("unsupported currency %q", e.Currency)
}

var hundred = decimal.NewFromInt(100)

// ParseSettings validates the basic settings form. The tax rate is entered
// as a percentage and stored as a fraction.
func ParseSettings(currency string, taxEnabled bool, rawTaxPercent string) (catalog.PricingSettings, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	supported := false
	for _, c := range Currencies {
		if c == code {
			supported = true
			break
		}
	}
	if !supported {
		return catalog.PricingSettings{}, &UnsupportedCurrencyError{Currency: currency}
	}

	percent, err := parseAmount(FieldTaxRate, rawTaxPercent)
	if err != nil {
		return catalog.PricingSettings{}, err
	}
	rate := decimal.Zero
	if percent != nil {
		if percent.GreaterThan(hundred) {
			return catalog.PricingSettings{}, ErrTaxRateRange
		}
		rate = percent.Div(hundred)
	}

	return catalog.PricingSettings{
		Currency:   code,
		TaxEnabled: taxEnabled,
		TaxRate:    rate,
	}, nil
}
