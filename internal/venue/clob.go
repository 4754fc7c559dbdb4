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

// KindCLOB tags metadata produced by the central-limit-order-book adapter.
const KindCLOB = "clob"

const clobBookCacheSize = 64

// DepthLevel is one ask level of a book: a scaled price and the quantity
// resting at it, in receive-asset units.
type DepthLevel struct {
	Price    uint64
	Quantity uint64
}

// DepthSnapshot is the book state a CLOB quote walks.
type DepthSnapshot struct {
	BookID   string
	Asks     []DepthLevel // sorted by price ascending
	LotSize  uint64
	FeeBps   uint64
	FeeToken string // non-empty when the venue charges fees in its own token
}

// CLOBAdapter quotes by walking depth levels of an on-chain order book and
// settles through the book's market-buy entry point.
type CLOBAdapter struct {
	name      string
	packageID string
	registry  string
	client    chain.Client
	cfg       Config

	books *expirable.LRU[string, *DepthSnapshot]
}

// clobMetadata is the opaque payload a CLOB quote carries to the composer.
type clobMetadata struct {
	BookID   string `codec:"book_id"`
	LotSize  uint64 `codec:"lot_size"`
	FeeBps   uint64 `codec:"fee_bps"`
	FeeToken string `codec:"fee_token"`
}

// NewCLOBAdapter creates an adapter for the order-book deployment at
// packageID with books listed in the given registry object.
func NewCLOBAdapter(name, packageID, registryID string, client chain.Client, cfg Config) *CLOBAdapter {
	ttl := time.Duration(cfg.MetadataTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &CLOBAdapter{
		name:      name,
		packageID: packageID,
		registry:  registryID,
		client:    client,
		cfg:       cfg,
		books:     expirable.NewLRU[string, *DepthSnapshot](clobBookCacheSize, nil, ttl),
	}
}

func (c *CLOBAdapter) Name() string { return c.name }

func (c *CLOBAdapter) GetPrice(ctx context.Context, pair types.Pair, receiveAmount uint64) (uint64, bool) {
	_, fill, pay, ok := c.quote(ctx, pair, receiveAmount)
	if !ok {
		return 0, false
	}
	price, ok := mulDivCeil(pay, pricing.Scale, fill)
	return price, ok
}

func (c *CLOBAdapter) GetDetailedQuote(ctx context.Context, pair types.Pair, receiveAmount uint64) (*types.VenueQuote, bool) {
	book, fill, pay, ok := c.quote(ctx, pair, receiveAmount)
	if !ok {
		return nil, false
	}
	price, ok := mulDivCeil(pay, pricing.Scale, fill)
	if !ok {
		return nil, false
	}
	payload, err := encodePayload(KindCLOB, clobMetadata{
		BookID:   book.BookID,
		LotSize:  book.LotSize,
		FeeBps:   book.FeeBps,
		FeeToken: book.FeeToken,
	})
	if err != nil {
		log.Printf("venue(%s): %v", c.name, err)
		return nil, false
	}
	return &types.VenueQuote{
		Venue:          c.name,
		ReceiveAmount:  fill,
		PayAmount:      pay,
		EffectivePrice: price,
		Payload:        payload,
	}, true
}

// quote walks the ask levels for the lot-rounded target. The quoted fill
// may exceed the request by less than one lot.
func (c *CLOBAdapter) quote(ctx context.Context, pair types.Pair, receiveAmount uint64) (*DepthSnapshot, uint64, uint64, bool) {
	if receiveAmount == 0 {
		return nil, 0, 0, false
	}
	book, err := c.snapshot(ctx, pair)
	if err != nil {
		log.Printf("venue(%s): book snapshot %s: %v", c.name, pair, err)
		return nil, 0, 0, false
	}

	target := roundUpToLot(receiveAmount, book.LotSize)
	var filled, paid uint64
	for _, lvl := range book.Asks {
		if filled >= target {
			break
		}
		take := target - filled
		if take > lvl.Quantity {
			take = lvl.Quantity
		}
		take = roundDownToLot(take, book.LotSize)
		if take == 0 {
			continue
		}
		levelPay, err := pricing.Payment(take, lvl.Price)
		if err != nil {
			return nil, 0, 0, false
		}
		filled += take
		paid += levelPay
	}
	if filled < target {
		// Insufficient depth.
		return nil, 0, 0, false
	}

	if book.FeeBps > 0 {
		fee, ok := mulDivCeil(paid, book.FeeBps, bpsDenominator)
		if !ok {
			return nil, 0, 0, false
		}
		paid += fee
	}
	return book, filled, paid, true
}

// BuildFragment emits a market buy whose min-out matches the quote promise
// under the configured slippage tolerance.
func (c *CLOBAdapter) BuildFragment(b *chain.TxBuilder, p FragmentParams) (*Fragment, error) {
	var md clobMetadata
	if err := decodePayload(p.Leg.Payload, KindCLOB, &md); err != nil {
		return nil, err
	}
	minOut := minOutFor(p.Leg.FillAmount, c.cfg.SlippageBps)
	minOut = roundDownToLot(minOut, md.LotSize)

	target := fmt.Sprintf("%s::market::market_buy", c.packageID)
	args := []chain.Arg{
		b.Object(md.BookID),
		p.PayCoin,
		b.PureU64(minOut),
		b.Object(chain.WellKnownClockObject),
	}
	if md.FeeToken != "" {
		// Venues charging fees in their own token take it as a type
		// argument and deduct from the input coin.
		return &Fragment{
			Output: b.MoveCall(target+"_with_fee",
				[]string{p.Pair.Pay, p.Pair.Receive, md.FeeToken}, args...),
			Description: fmt.Sprintf("clob buy %s book=%s minOut=%d fee=%s", p.Pair, md.BookID, minOut, md.FeeToken),
		}, nil
	}
	return &Fragment{
		Output:      b.MoveCall(target, []string{p.Pair.Pay, p.Pair.Receive}, args...),
		Description: fmt.Sprintf("clob buy %s book=%s minOut=%d", p.Pair, md.BookID, minOut),
	}, nil
}

// snapshot resolves the book for a pair, serving from the TTL cache when
// fresh.
func (c *CLOBAdapter) snapshot(ctx context.Context, pair types.Pair) (*DepthSnapshot, error) {
	key := pair.Receive + "|" + pair.Pay
	if book, ok := c.books.Get(key); ok {
		return book, nil
	}

	bookID, err := c.lookupBookID(ctx, pair)
	if err != nil {
		return nil, err
	}
	content, err := c.client.GetObject(ctx, bookID)
	if err != nil {
		return nil, err
	}
	var raw struct {
		Asks []struct {
			Price    chain.Uint64 `json:"price"`
			Quantity chain.Uint64 `json:"quantity"`
		} `json:"asks"`
		LotSize  chain.Uint64 `json:"lot_size"`
		FeeBps   chain.Uint64 `json:"fee_bps"`
		FeeToken string       `json:"fee_token"`
	}
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("book %s: %w", bookID, err)
	}
	book := &DepthSnapshot{
		BookID:   bookID,
		LotSize:  uint64(raw.LotSize),
		FeeBps:   uint64(raw.FeeBps),
		FeeToken: raw.FeeToken,
	}
	for _, l := range raw.Asks {
		book.Asks = append(book.Asks, DepthLevel{Price: uint64(l.Price), Quantity: uint64(l.Quantity)})
	}
	c.books.Add(key, book)
	return book, nil
}

func (c *CLOBAdapter) lookupBookID(ctx context.Context, pair types.Pair) (string, error) {
	content, err := c.client.GetObject(ctx, c.registry)
	if err != nil {
		return "", err
	}
	var reg struct {
		Books []struct {
			BookID string `json:"book_id"`
			Base   string `json:"base"`
			Quote  string `json:"quote"`
		} `json:"books"`
	}
	if err := json.Unmarshal(content, &reg); err != nil {
		return "", fmt.Errorf("registry %s: %w", c.registry, err)
	}
	for _, bk := range reg.Books {
		if bk.Base == pair.Receive && bk.Quote == pair.Pay {
			return bk.BookID, nil
		}
	}
	return "", fmt.Errorf("no book for %s", pair)
}

func roundUpToLot(v, lot uint64) uint64 {
	if lot <= 1 {
		return v
	}
	rem := v % lot
	if rem == 0 {
		return v
	}
	return v + lot - rem
}

func roundDownToLot(v, lot uint64) uint64 {
	if lot <= 1 {
		return v
	}
	return v - v%lot
}
