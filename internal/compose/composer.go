// Package compose turns a routing decision into a single atomic settlement
// transaction. The composer owns the coin plumbing between legs and is
// venue-aware only through the adapter contract; if any step fails on-chain
// the whole transaction reverts, so there is no per-leg recovery.
package compose

import (
	"errors"
	"fmt"

	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/core/types"
	"github.com/halcyonex/routerd/internal/venue"
)

// Gas budget ceilings. Composite routes touch more objects and run more
// commands, so they carry the larger default.
const (
	DefaultGasBudgetDirect    uint64 = 50_000_000
	DefaultGasBudgetComposite uint64 = 100_000_000
)

var (
	ErrNoAdapter      = errors.New("compose: no adapter for leg venue")
	ErrOpaqueSplit    = errors.New("compose: opaque intents settle only through the encrypted execution call")
	ErrMissingFunding = errors.New("compose: no funding coin for pay asset")
)

// Request describes one settlement to assemble.
type Request struct {
	Decision *types.RoutingDecision

	// Sender is the executor address paying gas and funding the legs.
	Sender string
	// FundingCoin is the object id of the sender's pay-asset coin.
	FundingCoin string
	// Recipient receives the purchased assets.
	Recipient string

	// IntentID binds the settlement to an on-chain intent; empty for a
	// direct fill.
	IntentID string
	// ExecutorCapID authorizes intent execution.
	ExecutorCapID string
	// Opaque marks an intent whose parameters were decrypted off-chain;
	// they are passed explicitly to the encrypted execution call.
	Opaque bool
	// Params are the decrypted parameters of an opaque intent.
	Params *types.IntentParams
}

// Composer assembles settlement transactions.
type Composer struct {
	targets  chain.Targets
	adapters map[string]venue.Adapter

	gasDirect    uint64
	gasComposite uint64
}

// New creates a composer. adapters must contain an entry per venue the
// router can emit legs for, including the native fragment adapter.
func New(targets chain.Targets, adapters []venue.Adapter) *Composer {
	m := make(map[string]venue.Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Composer{
		targets:      targets,
		adapters:     m,
		gasDirect:    DefaultGasBudgetDirect,
		gasComposite: DefaultGasBudgetComposite,
	}
}

// SetGasBudgets overrides the default gas ceilings.
func (c *Composer) SetGasBudgets(direct, composite uint64) {
	if direct > 0 {
		c.gasDirect = direct
	}
	if composite > 0 {
		c.gasComposite = composite
	}
}

// Build assembles the transaction bytes for the request.
func (c *Composer) Build(req Request) ([]byte, error) {
	d := req.Decision
	if d == nil || len(d.Legs) == 0 {
		return nil, errors.New("compose: empty decision")
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("compose: %w", err)
	}
	if req.FundingCoin == "" {
		return nil, ErrMissingFunding
	}

	singleNative := len(d.Legs) == 1 && d.Legs[0].Native()
	switch {
	case req.IntentID != "" && singleNative:
		return c.buildIntentFill(req)
	case req.Opaque:
		return nil, ErrOpaqueSplit
	case singleNative && req.IntentID == "":
		return c.buildDirectFill(req)
	default:
		return c.buildComposite(req)
	}
}

// buildDirectFill settles one native leg with no intent bound: split the
// exact payment off the funding coin, fill, hand the output to the
// recipient.
func (c *Composer) buildDirectFill(req Request) ([]byte, error) {
	d := req.Decision
	leg := d.Legs[0]

	b := chain.NewTxBuilder(req.Sender)
	b.SetGasBudget(c.gasDirect)

	funding := b.Object(req.FundingCoin)
	payment := b.SplitCoins(funding, b.PureU64(leg.PayAmount))[0]

	frag, err := c.fragmentFor(b, d.Pair, leg, payment, req.Recipient)
	if err != nil {
		return nil, err
	}
	b.TransferObjects(b.PureAddress(req.Recipient), frag.Output)
	return b.Build()
}

// buildIntentFill settles one native leg against an on-chain intent through
// the explicit-price execution call, or its encrypted variant for opaque
// intents with the decrypted parameters passed as arguments.
func (c *Composer) buildIntentFill(req Request) ([]byte, error) {
	d := req.Decision
	leg := d.Legs[0]
	if req.ExecutorCapID == "" {
		return nil, errors.New("compose: intent fill without executor capability")
	}

	b := chain.NewTxBuilder(req.Sender)
	b.SetGasBudget(c.gasDirect)

	funding := b.Object(req.FundingCoin)
	payment := b.SplitCoins(funding, b.PureU64(leg.PayAmount))[0]

	intent := b.Object(req.IntentID)
	offer := b.Object(leg.Payload.OfferID)
	cap := b.Object(req.ExecutorCapID)
	clock := b.Object(chain.WellKnownClockObject)
	typeArgs := []string{d.Pair.Receive, d.Pair.Pay}

	if req.Opaque {
		if req.Params == nil {
			return nil, errors.New("compose: opaque intent without decrypted parameters")
		}
		b.MoveCall(c.targets.ExecuteEncrypted(), typeArgs,
			intent, offer, cap, payment,
			b.PureU64(req.Params.ReceiveAmount),
			b.PureU64(req.Params.MinPrice),
			b.PureU64(req.Params.MaxPrice),
			b.PureU64(leg.EffectivePrice),
			clock,
		)
	} else {
		b.MoveCall(c.targets.ExecuteIntent(), typeArgs,
			intent, offer, cap, payment,
			b.PureU64(leg.EffectivePrice),
			clock,
		)
	}
	return b.Build()
}

// buildComposite settles a multi-leg route: split each leg's payment off
// the running funding handle (the last leg takes the remainder), hand each
// split to the leg's adapter, merge the outputs and transfer them to the
// recipient.
func (c *Composer) buildComposite(req Request) ([]byte, error) {
	d := req.Decision

	b := chain.NewTxBuilder(req.Sender)
	b.SetGasBudget(c.gasComposite)

	funding := b.Object(req.FundingCoin)
	outputs := make([]chain.Arg, 0, len(d.Legs))

	for i := range d.Legs {
		leg := d.Legs[i]
		payCoin := funding
		if i < len(d.Legs)-1 {
			payCoin = b.SplitCoins(funding, b.PureU64(leg.PayAmount))[0]
		}
		frag, err := c.fragmentFor(b, d.Pair, leg, payCoin, req.Recipient)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, frag.Output)
	}

	// All legs produce the same receive asset; collapse to one coin.
	if len(outputs) > 1 {
		b.MergeCoins(outputs[0], outputs[1:]...)
	}
	b.TransferObjects(b.PureAddress(req.Recipient), outputs[0])
	return b.Build()
}

func (c *Composer) fragmentFor(b *chain.TxBuilder, pair types.Pair, leg types.RoutingLeg, payCoin chain.Arg, recipient string) (*venue.Fragment, error) {
	adapter, ok := c.adapters[leg.Venue]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoAdapter, leg.Venue)
	}
	frag, err := adapter.BuildFragment(b, venue.FragmentParams{
		Pair:      pair,
		Leg:       leg,
		PayCoin:   payCoin,
		Recipient: recipient,
	})
	if err != nil {
		return nil, fmt.Errorf("compose: leg %s: %w", leg.Venue, err)
	}
	return frag, nil
}
