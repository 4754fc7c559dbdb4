package pricing

import (
	"math"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayment_CeilingRounding(t *testing.T) {
	tests := []struct {
		name  string
		fill  uint64
		price uint64
		want  uint64
	}{
		{"exact", 10 * Scale, 1 * Scale, 10 * Scale},
		{"half_price", 10 * Scale, Scale / 2, 5 * Scale},
		{"rounds_up", 3, Scale / 2, 2}, // 3*0.5 = 1.5 -> 2
		{"one_unit", 1, 1, 1},          // ceil(1/1e9) = 1
		{"price_1_5", 10 * Scale, 3 * Scale / 2, 15 * Scale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Payment(tt.fill, tt.price)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPayment_ZeroInputs(t *testing.T) {
	_, err := Payment(0, Scale)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Payment(Scale, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// The ceiling property from the settlement contract:
// payment*S >= fill*price > (payment-1)*S.
func TestPayment_CeilingProperty(t *testing.T) {
	cases := []struct{ fill, price uint64 }{
		{1, 1},
		{7, 3},
		{999_999_999, 1_000_000_001},
		{10 * Scale, 3 * Scale / 2},
		{123_456_789, 987_654_321},
		{math.MaxUint32, math.MaxUint32},
	}
	for _, c := range cases {
		pay, err := Payment(c.fill, c.price)
		require.NoError(t, err)

		// pay*S >= fill*price
		hiPay, loPay := mul128(pay, Scale)
		hiFP, loFP := mul128(c.fill, c.price)
		require.True(t, ge128(hiPay, loPay, hiFP, loFP),
			"payment under-pays for fill=%d price=%d", c.fill, c.price)

		// (pay-1)*S < fill*price
		hiPrev, loPrev := mul128(pay-1, Scale)
		require.False(t, ge128(hiPrev, loPrev, hiFP, loFP),
			"payment over-pays by a full unit for fill=%d price=%d", c.fill, c.price)
	}
}

func TestFillForBudget_NeverOverReceives(t *testing.T) {
	cases := []struct{ fill, price uint64 }{
		{1, Scale},
		{7, 3 * Scale},
		{10 * Scale, 3 * Scale / 2},
		{123_456_789, 987_654_321},
	}
	for _, c := range cases {
		pay, err := Payment(c.fill, c.price)
		require.NoError(t, err)
		back, err := FillForBudget(pay, c.price)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, c.fill, back,
			"budget round-trip over-receives for fill=%d price=%d", c.fill, c.price)
	}
}

func TestFillForBudget_ZeroPrice(t *testing.T) {
	_, err := FillForBudget(100, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPriceFromFillPay(t *testing.T) {
	p, err := PriceFromFillPay(10*Scale, 15*Scale)
	require.NoError(t, err)
	assert.Equal(t, 3*Scale/2, p)

	_, err = PriceFromFillPay(0, 100)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestWouldLeaveDust(t *testing.T) {
	tests := []struct {
		name      string
		remaining uint64
		fill      uint64
		minFill   uint64
		want      bool
	}{
		{"leaves_dust", 10, 7, 4, true},
		{"leaves_exactly_min", 10, 6, 4, false},
		{"exhausts", 10, 10, 4, false},
		{"over_fill", 10, 12, 4, false},
		{"zero_min_fill", 10, 7, 0, false},
		{"one_unit_left", 10, 9, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WouldLeaveDust(tt.remaining, tt.fill, tt.minFill))
		})
	}
}

func TestBounds(t *testing.T) {
	assert.True(t, InBounds(Scale, Scale, 2*Scale))
	assert.True(t, InBounds(2*Scale, Scale, 2*Scale))
	assert.False(t, InBounds(Scale-1, Scale, 2*Scale))
	assert.False(t, InBounds(2*Scale+1, Scale, 2*Scale))

	assert.True(t, RangesOverlap(1, 3, 3, 5))
	assert.True(t, RangesOverlap(1, 10, 2, 3))
	assert.False(t, RangesOverlap(1, 2, 3, 4))
}

func TestOverflowReported(t *testing.T) {
	_, err := Payment(math.MaxUint64, math.MaxUint64)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

// 128-bit helpers for property assertions.

func mul128(a, b uint64) (hi, lo uint64) {
	return bits.Mul64(a, b)
}

func ge128(aHi, aLo, bHi, bLo uint64) bool {
	if aHi != bHi {
		return aHi > bHi
	}
	return aLo >= bLo
}
