// Package book is the event-driven liquidity cache: the router's picture of
// the protocol's offers and intents, maintained by a single ingestion
// writer and read by many concurrent searchers. State lives only for the
// process lifetime; a restart repopulates from the chain's event history.
package book

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/core/types"
)

// Book holds offers and intents keyed by id, with a secondary index over
// active offers keyed by directed pair.
type Book struct {
	mu      sync.RWMutex
	offers  map[string]*types.Offer
	intents map[string]*types.Intent
	byPair  map[types.Pair]map[string]struct{}

	// nowMs is the millisecond clock, overridable in tests.
	nowMs func() uint64
}

// New creates an empty cache.
func New() *Book {
	return &Book{
		offers:  make(map[string]*types.Offer),
		intents: make(map[string]*types.Intent),
		byPair:  make(map[types.Pair]map[string]struct{}),
		nowMs:   func() uint64 { return uint64(time.Now().UnixMilli()) },
	}
}

// Apply ingests one raw event. Creation events for known ids are ignored;
// status transitions only move toward terminal states; anything that would
// regress observable state is logged and skipped. Apply is called only from
// the ingestion worker.
func (b *Book) Apply(ev chain.RawEvent) {
	parsed, err := chain.ParseEvent(ev)
	if err != nil {
		log.Printf("book: skipping event %s: %v", ev.Type, err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch e := parsed.(type) {
	case *chain.OfferCreatedEvent:
		b.applyOfferCreated(e, uint64(ev.TimestampMs))
	case *chain.OfferFilledEvent:
		b.applyOfferFilled(e)
	case *chain.OfferWithdrawnEvent:
		b.transitionOffer(e.OfferID, types.OfferWithdrawn)
	case *chain.OfferExpiredEvent:
		b.transitionOffer(e.OfferID, types.OfferExpired)
	case *chain.IntentSubmittedEvent:
		b.applyIntentSubmitted(e)
	case *chain.IntentExecutedEvent:
		b.transitionIntent(e.IntentID, types.IntentExecuted)
	case *chain.IntentCancelledEvent:
		b.transitionIntent(e.IntentID, types.IntentCancelled)
	case *chain.IntentExpiredEvent:
		b.transitionIntent(e.IntentID, types.IntentExpired)
	}
}

func (b *Book) applyOfferCreated(e *chain.OfferCreatedEvent, tsMs uint64) {
	if _, exists := b.offers[e.OfferID]; exists {
		// Idempotent: replayed creation.
		return
	}
	if e.OfferID == "" || e.InitialAmount == 0 || uint64(e.MinPrice) > uint64(e.MaxPrice) {
		log.Printf("book: skipping malformed offer creation %q", e.OfferID)
		return
	}
	o := &types.Offer{
		OfferID:         e.OfferID,
		Maker:           e.Maker,
		OfferAsset:      e.OfferAsset,
		WantAsset:       e.WantAsset,
		InitialAmount:   uint64(e.InitialAmount),
		RemainingAmount: uint64(e.InitialAmount),
		MinPrice:        uint64(e.MinPrice),
		MaxPrice:        uint64(e.MaxPrice),
		FillPolicy:      e.Policy(),
		MinFillAmount:   uint64(e.MinFillAmount),
		ExpiryMs:        uint64(e.ExpiryMs),
		Status:          types.OfferCreated,
		LastUpdatedAt:   tsMs,
	}
	b.offers[o.OfferID] = o
	b.indexOffer(o)
}

func (b *Book) applyOfferFilled(e *chain.OfferFilledEvent) {
	o, ok := b.offers[e.OfferID]
	if !ok {
		// Fill for an offer created before our history window.
		return
	}
	remaining := uint64(e.RemainingAmount)
	if remaining > o.RemainingAmount {
		log.Printf("book: offer %s fill would regress remaining %d -> %d, skipping",
			o.OfferID, o.RemainingAmount, remaining)
		return
	}
	next := types.OfferPartiallyFilled
	if remaining == 0 {
		next = types.OfferFilled
	}
	if !o.Status.CanTransitionTo(next) {
		log.Printf("book: offer %s illegal transition %s -> %s, skipping", o.OfferID, o.Status, next)
		return
	}
	o.RemainingAmount = remaining
	o.Status = next
	o.TotalFilled += uint64(e.FillAmount)
	o.FillCount++
	o.LastUpdatedAt = uint64(e.TimestampMs)
	if next == types.OfferFilled {
		b.unindexOffer(o)
	}
}

func (b *Book) transitionOffer(id string, next types.OfferStatus) {
	o, ok := b.offers[id]
	if !ok {
		return
	}
	if !o.Status.CanTransitionTo(next) {
		log.Printf("book: offer %s illegal transition %s -> %s, skipping", id, o.Status, next)
		return
	}
	o.Status = next
	b.unindexOffer(o)
}

func (b *Book) applyIntentSubmitted(e *chain.IntentSubmittedEvent) {
	if _, exists := b.intents[e.IntentID]; exists {
		return
	}
	if e.IntentID == "" {
		log.Printf("book: skipping malformed intent submission")
		return
	}
	b.intents[e.IntentID] = &types.Intent{
		IntentID:      e.IntentID,
		Creator:       e.Creator,
		ReceiveAsset:  e.ReceiveAsset,
		PayAsset:      e.PayAsset,
		ReceiveAmount: uint64(e.ReceiveAmount),
		MaxPayAmount:  uint64(e.MaxPayAmount),
		MinPrice:      uint64(e.MinPrice),
		MaxPrice:      uint64(e.MaxPrice),
		ExpiryMs:      uint64(e.ExpiryMs),
		Status:        types.IntentPending,
	}
}

func (b *Book) transitionIntent(id string, next types.IntentStatus) {
	in, ok := b.intents[id]
	if !ok {
		return
	}
	if in.Status.Terminal() {
		return
	}
	in.Status = next
}

func (b *Book) indexOffer(o *types.Offer) {
	pair := o.Pair()
	ids, ok := b.byPair[pair]
	if !ok {
		ids = make(map[string]struct{})
		b.byPair[pair] = ids
	}
	ids[o.OfferID] = struct{}{}
}

func (b *Book) unindexOffer(o *types.Offer) {
	if ids, ok := b.byPair[o.Pair()]; ok {
		delete(ids, o.OfferID)
		if len(ids) == 0 {
			delete(b.byPair, o.Pair())
		}
	}
}

// ActiveOffers returns a point-in-time snapshot of the offers able to serve
// the pair right now: active status, unexpired, with remaining balance.
// Sorted by MinPrice ascending, larger remaining first on ties so routing
// prefers fewer, bigger blocks.
func (b *Book) ActiveOffers(pair types.Pair) []types.Offer {
	now := b.nowMs()

	b.mu.RLock()
	ids := b.byPair[pair]
	out := make([]types.Offer, 0, len(ids))
	for id := range ids {
		o := b.offers[id]
		if o.Active(now) {
			out = append(out, *o)
		}
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].MinPrice != out[j].MinPrice {
			return out[i].MinPrice < out[j].MinPrice
		}
		return out[i].RemainingAmount > out[j].RemainingAmount
	})
	return out
}

// PendingIntents returns a snapshot of unexpired pending intents, soonest
// expiry first.
func (b *Book) PendingIntents() []types.Intent {
	now := b.nowMs()

	b.mu.RLock()
	out := make([]types.Intent, 0)
	for _, in := range b.intents {
		if in.Pending(now) {
			out = append(out, *in)
		}
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ExpiryMs < out[j].ExpiryMs
	})
	return out
}

// GetOffer returns a copy of the offer, if known.
func (b *Book) GetOffer(id string) (types.Offer, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.offers[id]
	if !ok {
		return types.Offer{}, false
	}
	return *o, true
}

// GetIntent returns a copy of the intent, if known.
func (b *Book) GetIntent(id string) (types.Intent, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	in, ok := b.intents[id]
	if !ok {
		return types.Intent{}, false
	}
	return *in, true
}

// Counts reports store sizes for the status endpoint.
func (b *Book) Counts() (offers, intents int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.offers), len(b.intents)
}
