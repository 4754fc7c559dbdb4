// Package types holds the domain model shared by the cache, router,
// composer and engine: offers, intents and routing decisions. All amounts
// are integers in the asset's smallest unit; all prices are integers scaled
// by pricing.Scale.
package types

import "fmt"

// FillPolicy controls how much of an offer a single fill may take.
// The numeric values are the on-chain constants and must not change.
type FillPolicy uint8

const (
	// FillPolicyFullOnly requires any fill to take the entire remainder.
	FillPolicyFullOnly FillPolicy = 0
	// FillPolicyPartial allows fills of any size.
	FillPolicyPartial FillPolicy = 1
	// FillPolicyPartialGated allows partial fills of at least MinFillAmount.
	FillPolicyPartialGated FillPolicy = 2
)

func (p FillPolicy) String() string {
	switch p {
	case FillPolicyFullOnly:
		return "full_only"
	case FillPolicyPartial:
		return "partial"
	case FillPolicyPartialGated:
		return "partial_gated"
	default:
		return fmt.Sprintf("fill_policy(%d)", uint8(p))
	}
}

// OfferStatus is the lifecycle state of an offer.
type OfferStatus uint8

const (
	OfferCreated OfferStatus = iota
	OfferPartiallyFilled
	OfferFilled
	OfferExpired
	OfferWithdrawn
)

func (s OfferStatus) String() string {
	switch s {
	case OfferCreated:
		return "created"
	case OfferPartiallyFilled:
		return "partially_filled"
	case OfferFilled:
		return "filled"
	case OfferExpired:
		return "expired"
	case OfferWithdrawn:
		return "withdrawn"
	default:
		return fmt.Sprintf("offer_status(%d)", uint8(s))
	}
}

// Terminal reports whether no further transitions are possible.
func (s OfferStatus) Terminal() bool {
	return s == OfferFilled || s == OfferExpired || s == OfferWithdrawn
}

// CanTransitionTo reports whether the status DAG permits s -> next.
// Allowed: Created -> PartiallyFilled? -> {Filled | Withdrawn | Expired}.
func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	if s.Terminal() {
		return false
	}
	switch next {
	case OfferPartiallyFilled:
		return s == OfferCreated || s == OfferPartiallyFilled
	case OfferFilled, OfferExpired, OfferWithdrawn:
		return true
	default:
		return false
	}
}

// Offer is a maker's escrowed supply of OfferAsset priced in WantAsset.
type Offer struct {
	OfferID    string
	Maker      string
	OfferAsset string
	WantAsset  string

	InitialAmount   uint64
	RemainingAmount uint64

	// Price band, scaled by pricing.Scale, in want-asset per offer-asset.
	MinPrice uint64
	MaxPrice uint64

	FillPolicy    FillPolicy
	MinFillAmount uint64
	ExpiryMs      uint64

	Status OfferStatus

	TotalFilled   uint64
	FillCount     uint64
	LastUpdatedAt uint64
}

// Active reports whether the offer can contribute liquidity at nowMs.
func (o *Offer) Active(nowMs uint64) bool {
	if o.Status != OfferCreated && o.Status != OfferPartiallyFilled {
		return false
	}
	return o.RemainingAmount > 0 && o.ExpiryMs > nowMs
}

// Pair returns the directed pair a taker of this offer trades:
// the taker receives the offer asset and pays the want asset.
func (o *Offer) Pair() Pair {
	return Pair{Receive: o.OfferAsset, Pay: o.WantAsset}
}
