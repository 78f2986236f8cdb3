package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputePricePatch(t *testing.T) {
	t.Run("current only keeps original", func(t *testing.T) {
		it := withOriginal(item(1, "Latte", "coffee", "10"), "12")

		p, err := ComputePricePatch(it, PriceInput{Current: dp("11")})
		require.NoError(t, err)
		assertDecimalPtr(t, dp("11"), p.Price)
		assert.Nil(t, p.OriginalPrice)
		assert.Nil(t, p.OnSale)

		next, err := p.Apply(it)
		require.NoError(t, err)
		assert.True(t, d("11").Equal(next.Price))
		assert.True(t, next.OriginalPrice.Valid)
		assert.True(t, d("12").Equal(next.OriginalPrice.Decimal))
	})

	t.Run("original only compared with stored price", func(t *testing.T) {
		it := item(1, "Latte", "coffee", "20")

		_, err := ComputePricePatch(it, PriceInput{Original: dp("18")})
		require.ErrorIs(t, err, ErrPriceOrder)
	})

	t.Run("original only above stored price", func(t *testing.T) {
		it := item(1, "Latte", "coffee", "10")

		p, err := ComputePricePatch(it, PriceInput{Original: dp("19")})
		require.NoError(t, err)
		assert.Nil(t, p.Price)
		assertDecimalPtr(t, dp("19"), p.OriginalPrice)
	})

	t.Run("new current at or above stored original", func(t *testing.T) {
		it := withOriginal(item(1, "Latte", "coffee", "10"), "12")

		_, err := ComputePricePatch(it, PriceInput{Current: dp("12")})
		require.ErrorIs(t, err, ErrPriceOrder)
	})

	t.Run("no original anywhere", func(t *testing.T) {
		it := item(1, "Latte", "coffee", "10")

		p, err := ComputePricePatch(it, PriceInput{Current: dp("30")})
		require.NoError(t, err)
		assertDecimalPtr(t, dp("30"), p.Price)
		assert.Nil(t, p.OriginalPrice)
	})

	t.Run("both set overrides stored values", func(t *testing.T) {
		it := withOriginal(item(1, "Latte", "coffee", "10"), "12")

		p, err := ComputePricePatch(it, PriceInput{Current: dp("20"), Original: dp("25")})
		require.NoError(t, err)
		assertDecimalPtr(t, dp("20"), p.Price)
		assertDecimalPtr(t, dp("25"), p.OriginalPrice)
	})
}
