package router

import (
	"context"

	"github.com/halcyonex/routerd/internal/core/types"
	"github.com/halcyonex/routerd/internal/venue"
)

// assembleCandidates builds every admissible route shape: all-native,
// single-external, and native-prefix + external-residual splits.
func (r *Router) assembleCandidates(ctx context.Context, pair types.Pair, target uint64,
	native []types.RoutingLeg, quotes []*types.VenueQuote) []*types.RoutingDecision {

	var candidates []*types.RoutingDecision

	if c := allNativeCandidate(native, target); c != nil {
		candidates = append(candidates, c)
	}
	for _, q := range quotes {
		candidates = append(candidates, singleExternalCandidate(q))
	}
	if r.policy.EnableSplits {
		for _, q := range quotes {
			if c := r.splitCandidate(ctx, pair, target, native, q); c != nil {
				candidates = append(candidates, c)
			}
		}
	}
	return candidates
}

// allNativeCandidate admits the walked native legs when they cover the
// target exactly or with a small positive overfill bounded by the last
// leg's declared minimum fill.
func allNativeCandidate(native []types.RoutingLeg, target uint64) *types.RoutingDecision {
	if len(native) == 0 {
		return nil
	}
	var fill, pay uint64
	for i := range native {
		fill += native[i].FillAmount
		pay += native[i].PayAmount
	}
	if fill < target {
		return nil
	}
	overfill := fill - target
	if overfill > 0 {
		last, ok := lastFullTake(native)
		if !ok || overfill > last {
			return nil
		}
	}
	legs := make([]types.RoutingLeg, len(native))
	copy(legs, native)
	return &types.RoutingDecision{
		TotalReceiveAmount: fill,
		TotalPayAmount:     pay,
		Legs:               legs,
	}
}

// lastFullTake returns the minimum-fill bound of the final dust-driven full
// take, the only legitimate overfill source.
func lastFullTake(native []types.RoutingLeg) (uint64, bool) {
	last := native[len(native)-1]
	if last.FillType != types.FillTypeFull {
		return 0, false
	}
	// The walk over-filled because the dust rule took the whole block;
	// the block itself bounds the admissible overage.
	return last.FillAmount, true
}

func singleExternalCandidate(q *types.VenueQuote) *types.RoutingDecision {
	return &types.RoutingDecision{
		TotalReceiveAmount: q.ReceiveAmount,
		TotalPayAmount:     q.PayAmount,
		Legs: []types.RoutingLeg{{
			Venue:          q.Venue,
			FillAmount:     q.ReceiveAmount,
			PayAmount:      q.PayAmount,
			EffectivePrice: q.EffectivePrice,
			FillType:       types.FillTypePartial,
			Payload:        q.Payload,
		}},
	}
}

// splitCandidate keeps the prefix of native legs priced below the external
// quote and lets the venue absorb the residual. The venue is requoted at
// the actual residual amount so the committed leg settles at the price it
// was quoted, not at the full-depth approximation.
func (r *Router) splitCandidate(ctx context.Context, pair types.Pair, target uint64,
	native []types.RoutingLeg, q *types.VenueQuote) *types.RoutingDecision {

	var prefix []types.RoutingLeg
	var prefixFill, prefixPay uint64
	for i := range native {
		if native[i].EffectivePrice >= q.EffectivePrice {
			break
		}
		prefix = append(prefix, native[i])
		prefixFill += native[i].FillAmount
		prefixPay += native[i].PayAmount
		if prefixFill >= target {
			break
		}
	}
	if len(prefix) == 0 || prefixFill >= target {
		// Nothing to split: either the venue beats every native offer
		// (single-external covers it) or the book alone covers the target
		// (all-native covers it).
		return nil
	}
	residual := target - prefixFill
	if residual < r.policy.MinLegAmount {
		return nil
	}

	requote, ok := r.requote(ctx, pair, residual, q.Venue)
	if !ok {
		return nil
	}

	legs := make([]types.RoutingLeg, len(prefix), len(prefix)+1)
	copy(legs, prefix)
	legs = append(legs, types.RoutingLeg{
		Venue:          requote.Venue,
		FillAmount:     requote.ReceiveAmount,
		PayAmount:      requote.PayAmount,
		EffectivePrice: requote.EffectivePrice,
		FillType:       types.FillTypePartial,
		Payload:        requote.Payload,
	})
	return &types.RoutingDecision{
		TotalReceiveAmount: prefixFill + requote.ReceiveAmount,
		TotalPayAmount:     prefixPay + requote.PayAmount,
		Legs:               legs,
	}
}

// requote asks the named venue for the residual amount under a fresh
// deadline.
func (r *Router) requote(ctx context.Context, pair types.Pair, amount uint64, venueName string) (*types.VenueQuote, bool) {
	var adapter venue.Adapter
	for _, a := range r.adapters {
		if a.Name() == venueName {
			adapter = a
			break
		}
	}
	if adapter == nil {
		return nil, false
	}
	qctx, cancel := context.WithTimeout(ctx, r.policy.QuoteDeadline)
	defer cancel()
	q, ok := adapter.GetDetailedQuote(qctx, pair, amount)
	if !ok || q == nil || q.ReceiveAmount < amount {
		return nil, false
	}
	return q, true
}

// pickBest ranks candidates by total payment, then fewer legs, then the
// native-book bias on near-equal totals.
func (r *Router) pickBest(candidates []*types.RoutingDecision) *types.RoutingDecision {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if better(c, best) {
			best = c
		}
	}
	if r.policy.NativeBiasBps == 0 {
		return best
	}

	// Among candidates whose total is within the bias of the winner,
	// prefer the one routing the most volume through the native book.
	allowance := best.TotalPayAmount/bpsDenominator*r.policy.NativeBiasBps +
		best.TotalPayAmount%bpsDenominator*r.policy.NativeBiasBps/bpsDenominator
	limit := best.TotalPayAmount + allowance
	preferred := best
	for _, c := range candidates {
		if c.TotalPayAmount > limit {
			continue
		}
		if nativeFill(c) > nativeFill(preferred) {
			preferred = c
		}
	}
	return preferred
}

const bpsDenominator = 10_000

func better(a, b *types.RoutingDecision) bool {
	if a.TotalPayAmount != b.TotalPayAmount {
		return a.TotalPayAmount < b.TotalPayAmount
	}
	return len(a.Legs) < len(b.Legs)
}

func nativeFill(d *types.RoutingDecision) uint64 {
	var n uint64
	for i := range d.Legs {
		if d.Legs[i].Native() {
			n += d.Legs[i].FillAmount
		}
	}
	return n
}
