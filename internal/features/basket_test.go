package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fcnquote/internal/contracts"
)

// obs builds an observation with a 3M put IV and everything else missing
func obs(symbol string, iv float64) *contracts.Observation {
	o := contracts.EmptyObservation(symbol)
	o.PutIV3M = iv
	return o
}

func TestNormalize_DescendingIVOrder(t *testing.T) {
	basket := Normalize([]*contracts.Observation{
		obs("AMD", 40),
		obs("NVDA", 55),
		obs("TSLA", 48),
	})

	require.Equal(t, 3, basket.Size())
	assert.Equal(t, []string{"NVDA", "TSLA", "AMD"}, basket.Symbols())
	assert.Equal(t, 55.0, basket.At(1).PutIV3M)
	assert.Equal(t, 48.0, basket.At(2).PutIV3M)
	assert.Equal(t, 40.0, basket.At(3).PutIV3M)
	assert.Nil(t, basket.At(4), "slot 4 should be absent")
}

func TestNormalize_OrderInvariance(t *testing.T) {
	a := obs("NVDA", 55)
	b := obs("TSLA", 48)
	c := obs("AMD", 40)

	permutations := [][]*contracts.Observation{
		{a, b, c},
		{a, c, b},
		{b, a, c},
		{b, c, a},
		{c, a, b},
		{c, b, a},
	}

	want := Normalize(permutations[0]).Symbols()
	for _, perm := range permutations {
		got := Normalize(perm).Symbols()
		assert.Equal(t, want, got, "permutation must not change ranking")
	}
}

func TestNormalize_MissingIVSortsLast(t *testing.T) {
	basket := Normalize([]*contracts.Observation{
		obs("NOIV", math.NaN()),
		obs("NVDA", 55),
		obs("TSLA", 48),
	})

	require.Equal(t, 3, basket.Size())
	assert.Equal(t, []string{"NVDA", "TSLA", "NOIV"}, basket.Symbols())
}

func TestNormalize_NilEntriesBecomeAbsentSlots(t *testing.T) {
	basket := Normalize([]*contracts.Observation{
		nil,
		obs("AAPL", 30),
		nil,
	})

	assert.Equal(t, 1, basket.Size())
	assert.Equal(t, []string{"AAPL"}, basket.Symbols())
	assert.Nil(t, basket.At(2))
}

func TestNormalize_TruncatesToCapacity(t *testing.T) {
	basket := Normalize([]*contracts.Observation{
		obs("A", 10), obs("B", 20), obs("C", 30), obs("D", 40), obs("E", 50),
	})

	assert.Equal(t, BasketCapacity, basket.Size())
	// Lowest IV entry is the one dropped
	assert.Equal(t, []string{"E", "D", "C", "B"}, basket.Symbols())
}

func TestNormalize_StableTies(t *testing.T) {
	first := Normalize([]*contracts.Observation{obs("X", 40), obs("Y", 40)})
	assert.Equal(t, []string{"X", "Y"}, first.Symbols())

	second := Normalize([]*contracts.Observation{obs("Y", 40), obs("X", 40)})
	assert.Equal(t, []string{"Y", "X"}, second.Symbols())
}

func TestRankedBasket_IVs(t *testing.T) {
	basket := Normalize([]*contracts.Observation{
		obs("NVDA", 55),
		obs("NOIV", math.NaN()),
	})

	ivs := basket.IVs()
	require.Len(t, ivs, 2)
	require.NotNil(t, ivs[0])
	assert.Equal(t, 55.0, *ivs[0])
	assert.Nil(t, ivs[1], "missing IV should surface as nil")
}
