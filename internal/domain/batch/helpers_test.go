package batch

import (
	"context"
	"sync"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func dp(v string) *decimal.Decimal {
	x := d(v)
	return &x
}

func item(id catalog.ItemID, name, category, price string) catalog.Item {
	return catalog.Item{
		ID:          id,
		Name:        name,
		CategoryKey: category,
		Price:       d(price),
		Currency:    "CNY",
	}
}

func withOriginal(it catalog.Item, original string) catalog.Item {
	it.OriginalPrice = decimal.NewNullDecimal(d(original))
	return it
}

// testCatalog has two categories:
//
//	coffee: 1 Latte 10, 2 Mocha 12, 3 Orange Latte 15 (was 18)
//	tea:    4 Green Tea 8, 5 latte tea 9
func testCatalog() *catalog.Catalog {
	return &catalog.Catalog{Categories: []catalog.Category{
		{Key: "coffee", Name: "Coffee", Items: []catalog.Item{
			item(1, "Latte", "coffee", "10"),
			item(2, "Mocha", "coffee", "12"),
			withOriginal(item(3, "Orange Latte", "coffee", "15"), "18"),
		}},
		{Key: "tea", Name: "Tea", Items: []catalog.Item{
			item(4, "Green Tea", "tea", "8"),
			item(5, "latte tea", "tea", "9"),
		}},
	}}
}

// --- Mock implementations ---

type mockStore struct {
	mu       sync.Mutex
	catalog  *catalog.Catalog
	readErr  error
	failures map[catalog.ItemID]error
	updates  []catalog.ItemID
}

func newMockStore(c *catalog.Catalog) *mockStore {
	return &mockStore{catalog: c, failures: make(map[catalog.ItemID]error)}
}

func (m *mockStore) ReadAll(_ context.Context) (*catalog.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	cp := &catalog.Catalog{Categories: make([]catalog.Category, len(m.catalog.Categories))}
	for i, cat := range m.catalog.Categories {
		cat.Items = append([]catalog.Item(nil), cat.Items...)
		cp.Categories[i] = cat
	}
	return cp, nil
}

func (m *mockStore) UpdateItem(_ context.Context, id catalog.ItemID, p catalog.Patch) (*catalog.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, id)
	if err := m.failures[id]; err != nil {
		return nil, err
	}
	for ci := range m.catalog.Categories {
		items := m.catalog.Categories[ci].Items
		for i := range items {
			if items[i].ID != id {
				continue
			}
			next, err := p.Apply(items[i])
			if err != nil {
				return nil, err
			}
			items[i] = next
			return &next, nil
		}
	}
	return nil, catalog.ErrItemNotFound
}

func (m *mockStore) get(id catalog.ItemID) catalog.Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range m.catalog.Items() {
		if it.ID == id {
			return it
		}
	}
	panic(errors.Errorf("item %d not in mock store", id))
}
