package venue

import (
	"context"
	"errors"
	"fmt"

	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/core/types"
)

// NativeAdapter settles legs against the protocol's own offer book. The
// router prices native legs directly from the liquidity cache, so the quote
// methods report no liquidity; only fragment building is live.
type NativeAdapter struct {
	targets chain.Targets
}

// NewNativeAdapter creates the fragment adapter for the protocol package.
func NewNativeAdapter(targets chain.Targets) *NativeAdapter {
	return &NativeAdapter{targets: targets}
}

func (n *NativeAdapter) Name() string { return types.VenueNative }

func (n *NativeAdapter) GetPrice(context.Context, types.Pair, uint64) (uint64, bool) {
	return 0, false
}

func (n *NativeAdapter) GetDetailedQuote(context.Context, types.Pair, uint64) (*types.VenueQuote, bool) {
	return nil, false
}

// BuildFragment emits the fill call for one native leg: fill_full when the
// leg exhausts the offer, fill_partial otherwise.
func (n *NativeAdapter) BuildFragment(b *chain.TxBuilder, p FragmentParams) (*Fragment, error) {
	if p.Leg.Payload.OfferID == "" {
		return nil, errors.New("venue: native leg without offer reference")
	}
	typeArgs := []string{p.Pair.Receive, p.Pair.Pay}
	offer := b.Object(p.Leg.Payload.OfferID)
	clock := b.Object(chain.WellKnownClockObject)

	var out chain.Arg
	var desc string
	if p.Leg.FillType == types.FillTypeFull {
		out = b.MoveCall(n.targets.FillFull(), typeArgs, offer, p.PayCoin, clock)
		desc = fmt.Sprintf("native fill_full offer=%s amount=%d", p.Leg.Payload.OfferID, p.Leg.FillAmount)
	} else {
		out = b.MoveCall(n.targets.FillPartial(), typeArgs,
			offer, p.PayCoin, b.PureU64(p.Leg.FillAmount), clock)
		desc = fmt.Sprintf("native fill_partial offer=%s amount=%d", p.Leg.Payload.OfferID, p.Leg.FillAmount)
	}
	return &Fragment{Output: out, Description: desc}, nil
}
