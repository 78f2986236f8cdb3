package seed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/vending-console/internal/domain/catalog"
)

const sampleJSON = `{
  "categories": [
    {"key": "coffee", "name": "Coffee", "items": [
      {"id": 1, "name": "Dry Cappuccino", "price": "18", "originalPrice": "22", "onSale": true},
      {"id": 2, "name": "Orange Latte", "price": 21.5, "originalPrice": null, "currency": "USD"}
    ]},
    {"key": "tea", "items": []}
  ]
}`

func TestDecode(t *testing.T) {
	c, err := Decode(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	require.Len(t, c.Categories, 2)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, catalog.ItemID(1), items[0].ID)
	assert.Equal(t, "coffee", items[0].CategoryKey)
	assert.True(t, decimal.NewFromInt(18).Equal(items[0].Price))
	assert.True(t, items[0].OriginalPrice.Valid)
	assert.Equal(t, DefaultCurrency, items[0].Currency)
	assert.True(t, items[0].OnSale)

	assert.False(t, items[1].OriginalPrice.Valid)
	assert.Equal(t, "USD", items[1].Currency)
	assert.True(t, decimal.RequireFromString("21.5").Equal(items[1].Price))

	assert.Equal(t, "tea", c.Categories[1].Name)
}

func TestDecode_RejectsBadPrices(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"categories":[{"key":"c","items":[
		{"id":1,"name":"x","price":"10","originalPrice":"9"}]}]}`))
	require.ErrorIs(t, err, catalog.ErrInvalidPatch)
}

func TestDecode_RejectsReservedKey(t *testing.T) {
	_, err := Decode(strings.NewReader(`{"categories":[{"key":"ALL","items":[]}]}`))
	require.ErrorIs(t, err, catalog.ErrReservedKey)
}

func TestLoad_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleJSON))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Items(), 2)
}

func TestLoad_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Items(), 2)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
