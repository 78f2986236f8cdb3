package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

func ids(items []catalog.Item) []catalog.ItemID {
	out := make([]catalog.ItemID, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestVisibleItems(t *testing.T) {
	c := testCatalog()

	tests := []struct {
		name   string
		filter Filter
		want   []catalog.ItemID
	}{
		{
			name:   "all categories no keyword",
			filter: AllItems,
			want:   []catalog.ItemID{1, 2, 3, 4, 5},
		},
		{
			name:   "single category",
			filter: Filter{Category: "tea"},
			want:   []catalog.ItemID{4, 5},
		},
		{
			name:   "keyword is case sensitive",
			filter: Filter{Category: catalog.ScopeAll, Keyword: "Latte"},
			want:   []catalog.ItemID{1, 3},
		},
		{
			name:   "lowercase keyword matches lowercase names only",
			filter: Filter{Category: catalog.ScopeAll, Keyword: "latte"},
			want:   []catalog.ItemID{5},
		},
		{
			name:   "category and keyword combined",
			filter: Filter{Category: "coffee", Keyword: "Mo"},
			want:   []catalog.ItemID{2},
		},
		{
			name:   "unknown category is empty",
			filter: Filter{Category: "juice"},
			want:   []catalog.ItemID{},
		},
		{
			name:   "keyword matches nothing",
			filter: Filter{Category: catalog.ScopeAll, Keyword: "Espresso"},
			want:   []catalog.ItemID{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(VisibleItems(c, tt.filter)))
		})
	}
}

func TestVisibleItems_AllIsUnionOfCategories(t *testing.T) {
	c := testCatalog()

	for _, kw := range []string{"", "Latte", "Tea", "a", "zzz"} {
		union := []catalog.ItemID{}
		for _, cat := range c.Categories {
			union = append(union, ids(VisibleItems(c, Filter{Category: cat.Key, Keyword: kw}))...)
		}
		all := ids(VisibleItems(c, Filter{Category: catalog.ScopeAll, Keyword: kw}))
		assert.Equal(t, union, all, "keyword %q", kw)
	}
}

func TestVisibleItems_DoesNotMutateCatalog(t *testing.T) {
	c := testCatalog()
	before := ids(c.Items())

	_ = VisibleItems(c, Filter{Category: "coffee", Keyword: "Latte"})

	assert.Equal(t, before, ids(c.Items()))
}
