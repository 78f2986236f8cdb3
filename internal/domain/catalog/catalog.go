package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ScopeAll is the pseudo category key meaning "every category".
// It is never a real category key.
const ScopeAll = "ALL"

var (
	// ErrItemNotFound is returned when an update targets an unknown item.
	ErrItemNotFound = errors.New("item not found")
	// ErrInvalidPatch is returned when a patch would leave an item in an
	// inconsistent state (negative price, original price not above price).
	ErrInvalidPatch = errors.New("invalid patch")
	// ErrReservedKey is returned when a category uses the ScopeAll key.
	ErrReservedKey = errors.New("category key is reserved")
)

// ItemID identifies a catalog item.
type ItemID int64

// Item is a product sold by the vending devices.
type Item struct {
	ID            ItemID
	Name          string
	CategoryKey   string
	Price         decimal.Decimal
	OriginalPrice decimal.NullDecimal
	OnSale        bool
	Currency      string
	TaxEnabled    bool
	TaxRate       decimal.Decimal
}

// Category groups items on the device menu.
type Category struct {
	Key   string
	Name  string
	Items []Item
}

// Catalog is a point-in-time snapshot of the whole menu.
type Catalog struct {
	Categories []Category
}

// Category returns the category with the given key.
func (c *Catalog) Category(key string) (*Category, bool) {
	for i := range c.Categories {
		if c.Categories[i].Key == key {
			return &c.Categories[i], true
		}
	}
	return nil, false
}

// Items returns every item in catalog order.
func (c *Catalog) Items() []Item {
	var out []Item
	for _, cat := range c.Categories {
		out = append(out, cat.Items...)
	}
	return out
}

// Validate checks catalog-wide constraints: unique category keys, unique
// item ids and consistent prices.
func (c *Catalog) Validate() error {
	keys := make(map[string]struct{}, len(c.Categories))
	ids := make(map[ItemID]struct{})
	for _, cat := range c.Categories {
		if cat.Key == "" {
			return errors.New("category key is empty")
		}
		if cat.Key == ScopeAll {
			return errors.Wrapf(ErrReservedKey, "category %q", cat.Key)
		}
		if _, dup := keys[cat.Key]; dup {
			return errors.Errorf("duplicate category %q", cat.Key)
		}
		keys[cat.Key] = struct{}{}

		for _, it := range cat.Items {
			if _, dup := ids[it.ID]; dup {
				return errors.Errorf("duplicate item id %d", it.ID)
			}
			ids[it.ID] = struct{}{}
			if err := it.check(); err != nil {
				return errors.Wrapf(err, "item %d", it.ID)
			}
		}
	}
	return nil
}

// Store holds the catalog. UpdateItem may fail per item; the returned error
// message is shown to the operator as is.
type Store interface {
	ReadAll(ctx context.Context) (*Catalog, error)
	UpdateItem(ctx context.Context, id ItemID, p Patch) (*Item, error)
}
