// Package venue defines the uniform adapter contract external liquidity
// sources implement, and the concrete adapters for the supported venue
// kinds. Adapters quote during route search and emit settlement fragments
// during composition; they never sign or submit.
package venue

import (
	"context"
	"math/bits"

	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/core/types"
)

// Fragment is the result of emitting one venue's settlement instructions
// into a transaction builder.
type Fragment struct {
	// Output is the handle of the produced receive-asset coin within the
	// transaction.
	Output chain.Arg
	// Description names the fragment for logs.
	Description string
}

// FragmentParams carries everything an adapter needs to settle one leg.
type FragmentParams struct {
	Pair types.Pair
	Leg  types.RoutingLeg
	// PayCoin is the handle of the coin funding this leg, already split to
	// the leg's PayAmount by the composer (or the running remainder for
	// the final leg).
	PayCoin chain.Arg
	// Recipient is the address receiving the leg's output if the adapter
	// must transfer it directly instead of returning a handle.
	Recipient string
}

// Adapter is the uniform interface every liquidity venue implements.
//
// Quote methods are cheap and must not raise: any failure (network, missing
// pool, insufficient depth, absent SDK) is reported as ok=false and is
// indistinguishable from "no liquidity". Adapters are stateless across
// requests aside from TTL-bounded metadata caches.
type Adapter interface {
	// Name is the venue identifier recorded on legs and decisions.
	Name() string

	// GetPrice returns the effective scaled price for receiving
	// receiveAmount of pair.Receive, slippage and fees included.
	GetPrice(ctx context.Context, pair types.Pair, receiveAmount uint64) (uint64, bool)

	// GetDetailedQuote returns the quote plus the opaque metadata the
	// composer later needs to emit a settlement fragment.
	GetDetailedQuote(ctx context.Context, pair types.Pair, receiveAmount uint64) (*types.VenueQuote, bool)

	// BuildFragment emits venue-specific settlement instructions into the
	// builder and returns the handle of the produced output.
	BuildFragment(b *chain.TxBuilder, p FragmentParams) (*Fragment, error)
}

// Config is shared adapter configuration.
type Config struct {
	// SlippageBps is the tolerance applied between quote and fragment so
	// the fragment's min-out matches the quote promise.
	SlippageBps uint64
	// MetadataTTL bounds how long locally-cached pool metadata may serve
	// quotes before a refetch.
	MetadataTTLSeconds int
}

// bpsDenominator is the basis-point scale.
const bpsDenominator = 10_000

// minOutFor applies the slippage tolerance to a promised receive amount.
func minOutFor(receiveAmount, slippageBps uint64) uint64 {
	if slippageBps >= bpsDenominator {
		return 0
	}
	out, ok := mulDiv(receiveAmount, bpsDenominator-slippageBps, bpsDenominator)
	if !ok {
		return 0
	}
	return out
}

// mulDiv computes floor(a*b/d) with a 128-bit intermediate.
func mulDiv(a, b, d uint64) (uint64, bool) {
	if d == 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= d {
		return 0, false
	}
	q, _ := bits.Div64(hi, lo, d)
	return q, true
}

// mulDivCeil computes ceil(a*b/d) with a 128-bit intermediate.
func mulDivCeil(a, b, d uint64) (uint64, bool) {
	q, ok := mulDiv(a, b, d)
	if !ok {
		return 0, false
	}
	hi, lo := bits.Mul64(a, b)
	_, r := bits.Div64(hi, lo, d)
	if r > 0 {
		q++
	}
	return q, true
}
