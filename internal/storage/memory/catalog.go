// Package memory provides in-process implementations of the console stores.
package memory

import (
	"context"
	"sync"

	"github.com/go-faster/errors"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

var _ catalog.Store = (*CatalogStore)(nil)

// CatalogStore keeps the catalog in memory. It is safe for concurrent use.
type CatalogStore struct {
	mu         sync.RWMutex
	categories []catalog.Category
	// index maps an item id to its category and item position.
	index map[catalog.ItemID][2]int
}

// NewCatalogStore returns a store holding a deep copy of c.
func NewCatalogStore(c *catalog.Catalog) (*CatalogStore, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate catalog")
	}
	s := &CatalogStore{index: make(map[catalog.ItemID][2]int)}
	s.categories = cloneCategories(c.Categories)
	for ci, cat := range s.categories {
		for ii, it := range cat.Items {
			s.index[it.ID] = [2]int{ci, ii}
		}
	}
	return s, nil
}

// ReadAll returns a copy of the catalog.
func (s *CatalogStore) ReadAll(_ context.Context) (*catalog.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &catalog.Catalog{Categories: cloneCategories(s.categories)}, nil
}

// UpdateItem applies p to a single item.
func (s *CatalogStore) UpdateItem(_ context.Context, id catalog.ItemID, p catalog.Patch) (*catalog.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return nil, errors.Wrapf(catalog.ErrItemNotFound, "item %d", id)
	}
	slot := &s.categories[pos[0]].Items[pos[1]]
	next, err := p.Apply(*slot)
	if err != nil {
		return nil, errors.Wrapf(err, "item %d", id)
	}
	*slot = next
	return &next, nil
}

func cloneCategories(src []catalog.Category) []catalog.Category {
	out := make([]catalog.Category, len(src))
	for i, cat := range src {
		cat.Items = append([]catalog.Item(nil), cat.Items...)
		out[i] = cat
	}
	return out
}
