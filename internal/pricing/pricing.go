// Package pricing implements the integer price arithmetic shared with the
// on-chain settlement logic. Every function here must produce exactly the
// value the settlement contract produces for the same inputs; a submitted
// transaction aborts if the two disagree by even one unit.
package pricing

import (
	"errors"
	"math/bits"
)

// Scale is the fixed-point price scaling factor. A price of 1*Scale means
// one unit of the want asset per unit of the offer asset.
const Scale uint64 = 1_000_000_000

// ErrInvalidAmount is returned for zero denominators and for results that
// do not fit in 64 bits. Callers must not rely on a silent zero.
var ErrInvalidAmount = errors.New("pricing: invalid amount")

// mulDiv computes floor(a*b/d) with a 128-bit intermediate.
func mulDiv(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrInvalidAmount
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		// Quotient would overflow 64 bits.
		return 0, ErrInvalidAmount
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, nil
}

// mulDivCeil computes ceil(a*b/d) with a 128-bit intermediate.
func mulDivCeil(a, b, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrInvalidAmount
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, ErrInvalidAmount
	}
	q, r := bits.Div64(hi, lo, d)
	if r > 0 {
		if q == ^uint64(0) {
			return 0, ErrInvalidAmount
		}
		q++
	}
	return q, nil
}

// Payment returns the amount the taker pays for fill units at the given
// scaled price, rounded up. The taker never under-pays.
func Payment(fill, price uint64) (uint64, error) {
	if fill == 0 || price == 0 {
		return 0, ErrInvalidAmount
	}
	return mulDivCeil(fill, price, Scale)
}

// PriceFromFillPay derives the scaled price implied by a fill/payment pair,
// rounded down.
func PriceFromFillPay(fill, pay uint64) (uint64, error) {
	if fill == 0 {
		return 0, ErrInvalidAmount
	}
	return mulDiv(pay, Scale, fill)
}

// EffectivePrice is the per-leg price recorded in routing decisions,
// rounded up so the recorded price never understates the real cost.
func EffectivePrice(fill, pay uint64) (uint64, error) {
	if fill == 0 {
		return 0, ErrInvalidAmount
	}
	return mulDivCeil(pay, Scale, fill)
}

// FillForBudget returns the largest fill purchasable with budget at the
// given scaled price, rounded down. The taker never over-receives.
func FillForBudget(budget, price uint64) (uint64, error) {
	if price == 0 {
		return 0, ErrInvalidAmount
	}
	return mulDiv(budget, Scale, price)
}

// WouldLeaveDust reports whether taking fill out of remaining would leave a
// remainder smaller than the offer's declared minimum fill. A fill that
// exactly exhausts the offer leaves no dust; a fill larger than remaining is
// clamped by the caller and cannot leave dust either.
func WouldLeaveDust(remaining, fill, minFill uint64) bool {
	if fill >= remaining {
		return false
	}
	left := remaining - fill
	return left < minFill
}

// InBounds reports whether price lies within [minPrice, maxPrice].
func InBounds(price, minPrice, maxPrice uint64) bool {
	return price >= minPrice && price <= maxPrice
}

// RangesOverlap reports whether the bands [aMin, aMax] and [bMin, bMax]
// intersect. Used to discard offers whose band cannot satisfy an intent
// before any arithmetic is done.
func RangesOverlap(aMin, aMax, bMin, bMax uint64) bool {
	return aMin <= bMax && bMin <= aMax
}

// BlendedPrice is the volume-weighted price of an aggregate fill, rounded
// down, matching the decision-level invariant floor(totalPay*S/totalReceive).
func BlendedPrice(totalReceive, totalPay uint64) (uint64, error) {
	return PriceFromFillPay(totalReceive, totalPay)
}
