package batch

import (
	"strings"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

// Filter narrows the catalog to the items an operator is looking at.
type Filter struct {
	// Category is a category key or catalog.ScopeAll.
	Category string
	// Keyword is matched case-sensitively against item names. Empty matches all.
	Keyword string
}

// AllItems is the filter that hides nothing.
var AllItems = Filter{Category: catalog.ScopeAll}

// VisibleItems returns the items matching f in catalog order.
func VisibleItems(c *catalog.Catalog, f Filter) []catalog.Item {
	var out []catalog.Item
	for _, cat := range c.Categories {
		if f.Category != catalog.ScopeAll && cat.Key != f.Category {
			continue
		}
		for _, it := range cat.Items {
			if f.Keyword != "" && !strings.Contains(it.Name, f.Keyword) {
				continue
			}
			out = append(out, it)
		}
	}
	return out
}
