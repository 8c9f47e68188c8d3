package discount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniform(price int64, units int) []Line {
	return []Line{{UnitPrice: price, Quantity: units}}
}

func TestComputeTotal_UniformPrice(t *testing.T) {
	cases := []struct {
		units int
		want  int64
	}{
		{0, 0},
		{1, 1200},
		{2, 2400},
		{3, 3240},
		{4, 4440},
		{5, 5100},
		{6, 6300},
		{7, 7500},
		{8, 8340},
		{9, 9540},
		{10, 9600},
		{13, 13200},
		{15, 14700},
		{18, 17940},
		{20, 19200},
		{23, 22800},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ComputeTotal(uniform(1200, tc.units)), "units=%d", tc.units)
	}
}

func TestComputeTotal_NoDiscountBelowThree(t *testing.T) {
	lines := []Line{{UnitPrice: 700, Quantity: 1}, {UnitPrice: 1500, Quantity: 1}}
	assert.Equal(t, int64(2200), ComputeTotal(lines))
	assert.Equal(t, int64(0), ComputeTotal(nil))
}

func TestComputeTotal_SplitAcrossLines(t *testing.T) {
	lines := []Line{
		{UnitPrice: 1200, Quantity: 2},
		{UnitPrice: 1200, Quantity: 3},
	}
	assert.Equal(t, int64(5100), ComputeTotal(lines))
}

func TestComputeTotal_UsesFirstLineAsBase(t *testing.T) {
	lines := []Line{
		{UnitPrice: 1000, Quantity: 2},
		{UnitPrice: 1200, Quantity: 1},
	}
	b := Quote(lines)
	assert.Equal(t, int64(1000), b.BasePrice)
	assert.Equal(t, int64(3200), b.RegularTotal)
	assert.Equal(t, int64(2700), b.Total)
	assert.Equal(t, int64(500), b.Savings)
}

func TestComputeTotal_RoundsHalfUp(t *testing.T) {
	// 1005 * 3 * 0.9 = 2713.5
	assert.Equal(t, int64(2714), ComputeTotal(uniform(1005, 3)))
	// 1 * 3 * 0.9 = 2.7
	assert.Equal(t, int64(3), ComputeTotal(uniform(1, 3)))
	// 3 * 5 * 0.85 = 12.75
	assert.Equal(t, int64(13), ComputeTotal(uniform(3, 5)))
}

func TestComputeTotal_IgnoresNonPositiveQuantities(t *testing.T) {
	lines := []Line{
		{UnitPrice: 999, Quantity: 0},
		{UnitPrice: 1200, Quantity: 3},
	}
	b := Quote(lines)
	assert.Equal(t, int64(1200), b.BasePrice)
	assert.Equal(t, int64(3240), b.Total)
}

func TestQuote_Breakdown(t *testing.T) {
	b := Quote(uniform(1200, 18))

	require.Len(t, b.Groups, 3)
	assert.Equal(t, Group{Tier: Tier{Size: 10, Percent: 20}, Count: 1, Units: 10, Subtotal: 9600}, b.Groups[0])
	assert.Equal(t, Group{Tier: Tier{Size: 5, Percent: 15}, Count: 1, Units: 5, Subtotal: 5100}, b.Groups[1])
	assert.Equal(t, Group{Tier: Tier{Size: 3, Percent: 10}, Count: 1, Units: 3, Subtotal: 3240}, b.Groups[2])
	assert.Equal(t, 0, b.LeftoverUnits)
	assert.Equal(t, int64(21600), b.RegularTotal)
	assert.Equal(t, int64(3660), b.Savings)
	assert.True(t, b.Discounted)
}

func TestQuote_ThirteenStopsAfterTen(t *testing.T) {
	b := Quote(uniform(1200, 13))

	require.Len(t, b.Groups, 1)
	assert.Equal(t, 10, b.Groups[0].Units)
	assert.Equal(t, 3, b.LeftoverUnits)
	assert.Equal(t, int64(13200), b.Total)
}

func TestQuote_BelowThresholdIsRegular(t *testing.T) {
	b := Quote(uniform(1200, 2))
	assert.False(t, b.Discounted)
	assert.Empty(t, b.Groups)
	assert.Equal(t, b.RegularTotal, b.Total)
	assert.Equal(t, int64(0), b.Savings)
}

func TestActiveTier(t *testing.T) {
	_, ok := ActiveTier(2)
	assert.False(t, ok)

	cases := map[int]int{3: 10, 4: 10, 5: 15, 9: 15, 10: 20, 50: 20}
	for units, pct := range cases {
		tier, ok := ActiveTier(units)
		require.True(t, ok, "units=%d", units)
		assert.Equal(t, pct, tier.Percent, "units=%d", units)
	}
}

func TestPolicy_Custom(t *testing.T) {
	p := Policy{Tiers: []Tier{{Size: 2, Percent: 50}}}
	assert.Equal(t, 2, p.MinUnits())
	// 2 units at half price, 1 leftover at full price
	assert.Equal(t, int64(200), p.Quote(uniform(100, 3)).Total)

	empty := Policy{}
	assert.Equal(t, int64(300), empty.Quote(uniform(100, 3)).Total)
}
