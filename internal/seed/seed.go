// Package seed reads catalog seed files. Files ending in .gz are
// gzip-compressed.
package seed

import (
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

type fileJSON struct {
	Categories []categoryJSON `json:"categories"`
}

type categoryJSON struct {
	Key   string     `json:"key"`
	Name  string     `json:"name"`
	Items []itemJSON `json:"items"`
}

type itemJSON struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	OnSale        bool                `json:"onSale"`
	Currency      string              `json:"currency"`
	TaxEnabled    bool                `json:"taxEnabled"`
	TaxRate       decimal.Decimal     `json:"taxRate"`
}

// DefaultCurrency is used for items whose seed entry has no currency.
const DefaultCurrency = "CNY"

// Load reads and validates the catalog stored at path.
func Load(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()
		r = gz
	}

	c, err := Decode(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return c, nil
}

// Decode parses a JSON seed document.
func Decode(r io.Reader) (*catalog.Catalog, error) {
	var doc fileJSON
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "parse catalog JSON")
	}

	c := &catalog.Catalog{Categories: make([]catalog.Category, 0, len(doc.Categories))}
	for _, cj := range doc.Categories {
		cat := catalog.Category{
			Key:   cj.Key,
			Name:  cj.Name,
			Items: make([]catalog.Item, 0, len(cj.Items)),
		}
		if cat.Name == "" {
			cat.Name = cj.Key
		}
		for _, ij := range cj.Items {
			currency := ij.Currency
			if currency == "" {
				currency = DefaultCurrency
			}
			cat.Items = append(cat.Items, catalog.Item{
				ID:            catalog.ItemID(ij.ID),
				Name:          ij.Name,
				CategoryKey:   cj.Key,
				Price:         ij.Price,
				OriginalPrice: ij.OriginalPrice,
				OnSale:        ij.OnSale,
				Currency:      currency,
				TaxEnabled:    ij.TaxEnabled,
				TaxRate:       ij.TaxRate,
			})
		}
		c.Categories = append(c.Categories, cat)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
