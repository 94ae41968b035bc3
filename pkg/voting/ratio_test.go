package voting

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentRatio(t *testing.T) {
	assert.Equal(t, Ratio(0), PercentRatio(0))
	assert.Equal(t, RatioBase/2, PercentRatio(50))
	assert.Equal(t, RatioBase, PercentRatio(100))

	// Every whole percentage must scale exactly; percentages above 18 used
	// to wrap around uint64 when the base was multiplied in first.
	for percent := uint64(0); percent <= 100; percent++ {
		r := PercentRatio(percent)
		assert.True(t, r.Valid(), "PercentRatio(%d) = %d", percent, r)
		assert.InDelta(t, float64(percent), r.Percent(), 1e-9, "PercentRatio(%d)", percent)
	}
}

func TestPercentRatioFloat(t *testing.T) {
	// Whole percentages agree exactly with the integer path.
	for percent := uint64(0); percent <= 100; percent++ {
		assert.Equal(t, PercentRatio(percent), PercentRatioFloat(float64(percent)),
			"PercentRatioFloat(%d)", percent)
	}

	// Small fractions are exact in float64.
	assert.Equal(t, RatioBase/200, PercentRatioFloat(0.5))
	assert.Equal(t, RatioBase/1000, PercentRatioFloat(0.1))
}

func TestDiv(t *testing.T) {
	t.Run("basic fractions", func(t *testing.T) {
		r, err := Div(big.NewInt(3), big.NewInt(4))
		require.NoError(t, err)
		assert.Equal(t, PercentRatio(75), r)

		r, err = Div(big.NewInt(0), big.NewInt(10))
		require.NoError(t, err)
		assert.Equal(t, Ratio(0), r)

		r, err = Div(big.NewInt(10), big.NewInt(10))
		require.NoError(t, err)
		assert.Equal(t, RatioBase, r)
	})

	t.Run("stays within base when value <= total", func(t *testing.T) {
		for value := int64(0); value <= 7; value++ {
			r, err := Div(big.NewInt(value), big.NewInt(7))
			require.NoError(t, err)
			assert.True(t, r.Valid(), "ratio %d/7 = %d", value, r)
		}
	})

	t.Run("zero total fails fast", func(t *testing.T) {
		_, err := Div(big.NewInt(1), big.NewInt(0))
		assert.ErrorIs(t, err, ErrDivisionByZero)

		_, err = Div(big.NewInt(0), big.NewInt(0))
		assert.ErrorIs(t, err, ErrDivisionByZero)
	})

	t.Run("value above total is out of bounds", func(t *testing.T) {
		_, err := Div(big.NewInt(11), big.NewInt(10))
		var oob *RatioOutOfBoundsError
		require.ErrorAs(t, err, &oob)
		assert.Equal(t, RatioBase, oob.Limit)
	})

	t.Run("truncates toward zero", func(t *testing.T) {
		// 1/3 must not round up past the exact fraction.
		r, err := Div(big.NewInt(1), big.NewInt(3))
		require.NoError(t, err)
		assert.Less(t, r, PercentRatio(34))
		assert.Greater(t, r, PercentRatio(33))
	})
}
