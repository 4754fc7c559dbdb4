package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/core/types"
	"github.com/halcyonex/routerd/internal/pricing"
)

// KindAMM tags metadata produced by the constant-product AMM adapter.
const KindAMM = "amm"

const ammPoolCacheSize = 128

// AMMPool is the pool state an AMM quote is computed from.
type AMMPool struct {
	PoolID   string
	AssetA   string
	AssetB   string
	ReserveA uint64
	ReserveB uint64
	FeeBps   uint64
	// SqrtPrice is the pool's recorded sqrt-price, carried through to the
	// settlement fragment unmodified.
	SqrtPrice string
}

// ammMetadata is the opaque payload an AMM quote carries to the composer.
type ammMetadata struct {
	PoolID     string `codec:"pool_id"`
	AToB       bool   `codec:"a_to_b"`
	FeeBps     uint64 `codec:"fee_bps"`
	SqrtPrice  string `codec:"sqrt_price"`
	ReserveIn  uint64 `codec:"reserve_in"`
	ReserveOut uint64 `codec:"reserve_out"`
}

// AMMAdapter quotes and settles against constant-product pools. Pool state
// is fetched through the chain client and cached with a bounded TTL; every
// other request is stateless.
type AMMAdapter struct {
	name      string
	packageID string
	registry  string
	client    chain.Client
	cfg       Config

	pools *expirable.LRU[string, *AMMPool]
}

// NewAMMAdapter creates an adapter for the AMM deployment at packageID with
// pools listed in the given registry object.
func NewAMMAdapter(name, packageID, registryID string, client chain.Client, cfg Config) *AMMAdapter {
	ttl := time.Duration(cfg.MetadataTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &AMMAdapter{
		name:      name,
		packageID: packageID,
		registry:  registryID,
		client:    client,
		cfg:       cfg,
		pools:     expirable.NewLRU[string, *AMMPool](ammPoolCacheSize, nil, ttl),
	}
}

func (a *AMMAdapter) Name() string { return a.name }

// GetPrice returns the effective scaled price for receiving receiveAmount,
// fees and price impact included.
func (a *AMMAdapter) GetPrice(ctx context.Context, pair types.Pair, receiveAmount uint64) (uint64, bool) {
	_, pay, ok := a.quoteExactOut(ctx, pair, receiveAmount)
	if !ok {
		return 0, false
	}
	price, ok := mulDivCeil(pay, pricing.Scale, receiveAmount)
	return price, ok
}

// GetDetailedQuote returns the quote plus the settlement metadata.
func (a *AMMAdapter) GetDetailedQuote(ctx context.Context, pair types.Pair, receiveAmount uint64) (*types.VenueQuote, bool) {
	pool, pay, ok := a.quoteExactOut(ctx, pair, receiveAmount)
	if !ok {
		return nil, false
	}
	price, ok := mulDivCeil(pay, pricing.Scale, receiveAmount)
	if !ok {
		return nil, false
	}

	aToB := pair.Pay == pool.AssetA
	reserveIn, reserveOut := pool.ReserveA, pool.ReserveB
	if !aToB {
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	}
	payload, err := encodePayload(KindAMM, ammMetadata{
		PoolID:     pool.PoolID,
		AToB:       aToB,
		FeeBps:     pool.FeeBps,
		SqrtPrice:  pool.SqrtPrice,
		ReserveIn:  reserveIn,
		ReserveOut: reserveOut,
	})
	if err != nil {
		log.Printf("venue(%s): %v", a.name, err)
		return nil, false
	}
	return &types.VenueQuote{
		Venue:          a.name,
		ReceiveAmount:  receiveAmount,
		PayAmount:      pay,
		EffectivePrice: price,
		Payload:        payload,
	}, true
}

// quoteExactOut computes the input required to take receiveAmount out of
// the pool: ceil(reserveIn*out/(reserveOut-out)), grossed up by the fee.
func (a *AMMAdapter) quoteExactOut(ctx context.Context, pair types.Pair, receiveAmount uint64) (*AMMPool, uint64, bool) {
	if receiveAmount == 0 {
		return nil, 0, false
	}
	pool, err := a.findPool(ctx, pair)
	if err != nil {
		log.Printf("venue(%s): pool lookup %s: %v", a.name, pair, err)
		return nil, 0, false
	}

	reserveIn, reserveOut := pool.ReserveA, pool.ReserveB
	if pair.Pay != pool.AssetA {
		reserveIn, reserveOut = pool.ReserveB, pool.ReserveA
	}
	if receiveAmount >= reserveOut {
		// Insufficient depth.
		return nil, 0, false
	}

	payNet, ok := mulDivCeil(reserveIn, receiveAmount, reserveOut-receiveAmount)
	if !ok {
		return nil, 0, false
	}
	if pool.FeeBps >= bpsDenominator {
		return nil, 0, false
	}
	pay, ok := mulDivCeil(payNet, bpsDenominator, bpsDenominator-pool.FeeBps)
	if !ok || pay == 0 {
		return nil, 0, false
	}
	return pool, pay, true
}

// BuildFragment emits an exact-in swap whose min-out matches the quote
// promise under the configured slippage tolerance.
func (a *AMMAdapter) BuildFragment(b *chain.TxBuilder, p FragmentParams) (*Fragment, error) {
	var md ammMetadata
	if err := decodePayload(p.Leg.Payload, KindAMM, &md); err != nil {
		return nil, err
	}
	minOut := minOutFor(p.Leg.FillAmount, a.cfg.SlippageBps)

	target := fmt.Sprintf("%s::pool::swap_exact_in", a.packageID)
	out := b.MoveCall(target,
		[]string{p.Pair.Pay, p.Pair.Receive},
		b.Object(md.PoolID),
		p.PayCoin,
		b.PureU64(minOut),
		b.PureBool(md.AToB),
		b.Object(chain.WellKnownClockObject),
	)
	return &Fragment{
		Output:      out,
		Description: fmt.Sprintf("amm swap %s pool=%s minOut=%d", p.Pair, md.PoolID, minOut),
	}, nil
}

// findPool resolves the pool for a pair, serving from the TTL cache when
// fresh.
func (a *AMMAdapter) findPool(ctx context.Context, pair types.Pair) (*AMMPool, error) {
	key := pair.Receive + "|" + pair.Pay
	if pool, ok := a.pools.Get(key); ok {
		return pool, nil
	}

	poolID, err := a.lookupPoolID(ctx, pair)
	if err != nil {
		return nil, err
	}
	content, err := a.client.GetObject(ctx, poolID)
	if err != nil {
		return nil, err
	}
	var raw struct {
		AssetA    string       `json:"asset_a"`
		AssetB    string       `json:"asset_b"`
		ReserveA  chain.Uint64 `json:"reserve_a"`
		ReserveB  chain.Uint64 `json:"reserve_b"`
		FeeBps    chain.Uint64 `json:"fee_bps"`
		SqrtPrice string       `json:"sqrt_price"`
	}
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("pool %s: %w", poolID, err)
	}
	pool := &AMMPool{
		PoolID:   poolID,
		AssetA:   raw.AssetA,
		AssetB:   raw.AssetB,
		ReserveA: uint64(raw.ReserveA),
		ReserveB: uint64(raw.ReserveB),
		FeeBps:   uint64(raw.FeeBps),
		SqrtPrice: raw.SqrtPrice,
	}
	a.pools.Add(key, pool)
	return pool, nil
}

// lookupPoolID scans the registry object for a pool covering the pair, in
// either orientation.
func (a *AMMAdapter) lookupPoolID(ctx context.Context, pair types.Pair) (string, error) {
	content, err := a.client.GetObject(ctx, a.registry)
	if err != nil {
		return "", err
	}
	var reg struct {
		Pools []struct {
			PoolID string `json:"pool_id"`
			AssetA string `json:"asset_a"`
			AssetB string `json:"asset_b"`
		} `json:"pools"`
	}
	if err := json.Unmarshal(content, &reg); err != nil {
		return "", fmt.Errorf("registry %s: %w", a.registry, err)
	}
	for _, p := range reg.Pools {
		if (p.AssetA == pair.Pay && p.AssetB == pair.Receive) ||
			(p.AssetB == pair.Pay && p.AssetA == pair.Receive) {
			return p.PoolID, nil
		}
	}
	return "", fmt.Errorf("no pool for %s", pair)
}
