package types

import (
	"errors"
	"fmt"
	"time"
)

// VenueNative is the venue name of the protocol's own offer book.
const VenueNative = "native"

// QuotePayload is the venue-specific data a leg carries from the router to
// the composer. Exactly one branch is set: OfferID for native legs, or the
// tagged metadata blob for external legs. The router reads neither; only
// the owning adapter interprets Metadata.
type QuotePayload struct {
	// OfferID references a native book offer.
	OfferID string

	// MetadataKind tags which adapter produced Metadata.
	MetadataKind string
	// Metadata is an opaque adapter-encoded blob (pool handle, direction,
	// sqrt-price, fee token requirement and the like).
	Metadata []byte
}

// VenueQuote is an external venue's answer to a detailed quote request.
type VenueQuote struct {
	Venue         string
	ReceiveAmount uint64
	PayAmount     uint64
	// EffectivePrice is ceil(PayAmount*Scale/ReceiveAmount).
	EffectivePrice uint64
	Payload        QuotePayload
}

// FillType selects which native fill call a leg settles through.
type FillType uint8

const (
	FillTypeFull FillType = iota
	FillTypePartial
)

// RoutingLeg is one venue's contribution to a route.
type RoutingLeg struct {
	Venue          string
	FillAmount     uint64
	PayAmount      uint64
	EffectivePrice uint64
	FillType       FillType
	Payload        QuotePayload

	// SourceMinPrice is the native offer's lower price bound, kept for
	// feasibility checks. Zero for external legs.
	SourceMinPrice uint64
}

// Native reports whether the leg settles against the protocol's own book.
func (l *RoutingLeg) Native() bool {
	return l.Venue == VenueNative
}

// RoutingDecision is the router's answer for one pair and target amount.
type RoutingDecision struct {
	ID   string
	Pair Pair

	TotalReceiveAmount uint64
	TotalPayAmount     uint64
	// BlendedPrice is floor(TotalPayAmount*Scale/TotalReceiveAmount).
	BlendedPrice uint64

	Legs    []RoutingLeg
	IsSplit bool

	ComputedAt time.Time
}

var (
	errNoLegs       = errors.New("routing decision has no legs")
	errLegSumFill   = errors.New("leg fills do not sum to total receive")
	errLegSumPay    = errors.New("leg payments do not sum to total pay")
	errSplitFlag    = errors.New("split flag inconsistent with leg count")
	errEmptyLegFill = errors.New("leg with zero fill amount")
)

// Validate checks the decision's structural invariants.
func (d *RoutingDecision) Validate() error {
	if len(d.Legs) == 0 {
		return errNoLegs
	}
	var fill, pay uint64
	for i := range d.Legs {
		if d.Legs[i].FillAmount == 0 {
			return fmt.Errorf("%w: leg %d", errEmptyLegFill, i)
		}
		fill += d.Legs[i].FillAmount
		pay += d.Legs[i].PayAmount
	}
	if fill != d.TotalReceiveAmount {
		return fmt.Errorf("%w: %d != %d", errLegSumFill, fill, d.TotalReceiveAmount)
	}
	if pay != d.TotalPayAmount {
		return fmt.Errorf("%w: %d != %d", errLegSumPay, pay, d.TotalPayAmount)
	}
	if d.IsSplit != (len(d.Legs) > 1) {
		return errSplitFlag
	}
	return nil
}

// NativeOnly reports whether every leg settles against the native book.
func (d *RoutingDecision) NativeOnly() bool {
	for i := range d.Legs {
		if !d.Legs[i].Native() {
			return false
		}
	}
	return true
}
