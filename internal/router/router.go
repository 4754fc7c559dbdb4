// Package router computes the cheapest executable path for a directed pair
// and target amount across the native offer book and the configured
// external venues, splitting across sources when that lowers the total
// cost. A search never fails because a venue failed; the only negative
// outcome is "no liquidity meeting constraints", which is a regular
// non-error return.
package router

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/halcyonex/routerd/internal/core/book"
	"github.com/halcyonex/routerd/internal/core/types"
	"github.com/halcyonex/routerd/internal/pricing"
	"github.com/halcyonex/routerd/internal/venue"
)

// Policy holds the search knobs.
type Policy struct {
	// MaxNativeLegs caps how many native offers one route may touch.
	MaxNativeLegs int
	// MinLegAmount is the smallest admissible external residual.
	MinLegAmount uint64
	// EnableSplits allows routes mixing native and external legs.
	EnableSplits bool
	// NativeBiasBps prefers the native book when candidate totals are
	// within this many basis points of each other.
	NativeBiasBps uint64
	// QuoteDeadline bounds each venue's quote call.
	QuoteDeadline time.Duration
	// QuoteConcurrency bounds the quote fan-out.
	QuoteConcurrency int
}

// DefaultPolicy returns the documented defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxNativeLegs:    5,
		MinLegAmount:     1,
		EnableSplits:     true,
		NativeBiasBps:    0,
		QuoteDeadline:    250 * time.Millisecond,
		QuoteConcurrency: 4,
	}
}

// Router searches the cache and the external venues for the cheapest route.
type Router struct {
	book     *book.Book
	adapters []venue.Adapter
	policy   Policy
}

// New creates a router over the cache and external adapters. The native
// fragment adapter is not part of the search set; the book is consulted
// directly.
func New(b *book.Book, adapters []venue.Adapter, policy Policy) *Router {
	if policy.MaxNativeLegs <= 0 {
		policy.MaxNativeLegs = 5
	}
	if policy.QuoteDeadline <= 0 {
		policy.QuoteDeadline = 250 * time.Millisecond
	}
	if policy.QuoteConcurrency <= 0 {
		policy.QuoteConcurrency = 4
	}
	if policy.MinLegAmount == 0 {
		policy.MinLegAmount = 1
	}
	return &Router{book: b, adapters: adapters, policy: policy}
}

// FindRoute returns the cheapest decision covering receiveAmount of
// pair.Receive, or ok=false when no source combination covers it.
func (r *Router) FindRoute(ctx context.Context, pair types.Pair, receiveAmount uint64) (*types.RoutingDecision, bool) {
	if receiveAmount == 0 {
		return nil, false
	}

	native := r.nativeLegs(pair, receiveAmount)
	quotes := r.fanOutQuotes(ctx, pair, receiveAmount)

	candidates := r.assembleCandidates(ctx, pair, receiveAmount, native, quotes)
	if len(candidates) == 0 {
		return nil, false
	}
	best := r.pickBest(candidates)

	best.ID = uuid.NewString()
	best.Pair = pair
	best.IsSplit = len(best.Legs) > 1
	best.ComputedAt = time.Now()
	if price, err := pricing.BlendedPrice(best.TotalReceiveAmount, best.TotalPayAmount); err == nil {
		best.BlendedPrice = price
	}
	return best, true
}

// nativeLegs walks the sorted active offers until the target is covered or
// the leg cap is reached, applying the fill rules per offer.
func (r *Router) nativeLegs(pair types.Pair, target uint64) []types.RoutingLeg {
	offers := r.book.ActiveOffers(pair)
	legs := make([]types.RoutingLeg, 0, r.policy.MaxNativeLegs)

	var covered uint64
	for i := range offers {
		if covered >= target || len(legs) >= r.policy.MaxNativeLegs {
			break
		}
		o := &offers[i]
		need := target - covered

		fill, fillType, ok := fillForOffer(o, need)
		if !ok {
			continue
		}

		// Charge the offer's upper bound: the on-chain settlement rounds
		// the payment up at the execution price, and the execution price
		// may legally land anywhere in the band.
		pay, err := pricing.Payment(fill, o.MaxPrice)
		if err != nil {
			continue
		}
		price, err := pricing.EffectivePrice(fill, pay)
		if err != nil {
			continue
		}
		legs = append(legs, types.RoutingLeg{
			Venue:          types.VenueNative,
			FillAmount:     fill,
			PayAmount:      pay,
			EffectivePrice: price,
			FillType:       fillType,
			Payload:        types.QuotePayload{OfferID: o.OfferID},
			SourceMinPrice: o.MinPrice,
		})
		covered += fill
	}
	return legs
}

// fillForOffer decides how much of one offer a route takes for the given
// residual need.
func fillForOffer(o *types.Offer, need uint64) (uint64, types.FillType, bool) {
	available := o.RemainingAmount
	if need >= available {
		return available, types.FillTypeFull, true
	}
	switch {
	case o.FillPolicy == types.FillPolicyFullOnly:
		// Cannot partially fill; taking the whole block for a smaller
		// need is the dust rule's job, and FullOnly offers declare none.
		return 0, 0, false
	case pricing.WouldLeaveDust(available, need, o.MinFillAmount):
		// Taking exactly need would strand a remainder below the offer's
		// minimum fill. Take the whole block; the overage is capped or
		// absorbed downstream.
		return available, types.FillTypeFull, true
	case o.FillPolicy == types.FillPolicyPartialGated && need < o.MinFillAmount:
		return 0, 0, false
	default:
		return need, types.FillTypePartial, true
	}
}

// fanOutQuotes queries every adapter in parallel under the per-venue
// deadline. A missing result is a permanent miss for this search.
func (r *Router) fanOutQuotes(ctx context.Context, pair types.Pair, receiveAmount uint64) []*types.VenueQuote {
	if len(r.adapters) == 0 {
		return nil
	}
	var mu sync.Mutex
	quotes := make([]*types.VenueQuote, 0, len(r.adapters))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.policy.QuoteConcurrency)
	for _, a := range r.adapters {
		a := a
		g.Go(func() error {
			qctx, cancel := context.WithTimeout(gctx, r.policy.QuoteDeadline)
			defer cancel()
			q, ok := a.GetDetailedQuote(qctx, pair, receiveAmount)
			if !ok || q == nil {
				return nil
			}
			if q.ReceiveAmount < receiveAmount || q.PayAmount == 0 {
				return nil
			}
			mu.Lock()
			quotes = append(quotes, q)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Printf("router: quote fan-out: %v", err)
	}
	return quotes
}
