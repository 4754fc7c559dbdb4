// Package engine runs the execution loop: each tick it scans the pending
// intents, routes the executable ones, composes and signs a settlement per
// intent and submits it. Competing executors mean every submission may lose
// the race; the loop treats on-chain rejection as a normal outcome and
// relies on the dedup window to avoid hammering the same intent.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/semaphore"

	"github.com/halcyonex/routerd/internal/chain"
	"github.com/halcyonex/routerd/internal/compose"
	"github.com/halcyonex/routerd/internal/confidential"
	"github.com/halcyonex/routerd/internal/core/book"
	"github.com/halcyonex/routerd/internal/core/types"
	"github.com/halcyonex/routerd/internal/crypto"
	"github.com/halcyonex/routerd/internal/pricing"
	"github.com/halcyonex/routerd/internal/router"
)

// Outcome classifies how processing one intent ended.
type Outcome uint8

const (
	OutcomeExecuted Outcome = iota
	OutcomeNoRoute
	OutcomeConstraintViolation
	OutcomeConfidentialityMiss
	OutcomeSubmissionFailed
	OutcomeDeduped
	OutcomeExpired
)

func (o Outcome) String() string {
	switch o {
	case OutcomeExecuted:
		return "executed"
	case OutcomeNoRoute:
		return "no_route"
	case OutcomeConstraintViolation:
		return "constraint_violation"
	case OutcomeConfidentialityMiss:
		return "confidentiality_miss"
	case OutcomeSubmissionFailed:
		return "submission_failed"
	case OutcomeDeduped:
		return "deduped"
	case OutcomeExpired:
		return "expired"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// Journal durably records settled intents so the dedup window survives a
// restart. Optional; the in-memory window alone covers the common case.
type Journal interface {
	WasExecuted(intentID string) (bool, error)
	MarkExecuted(intentID string, at time.Time) error
}

// SessionIssuer mints session credentials for the confidentiality shim.
// Optional; without one, opaque intents are skipped once the bootstrap
// credential expires.
type SessionIssuer interface {
	IssueSession(ctx context.Context) (credential []byte, expiresAt time.Time, err error)
}

// Config holds the loop parameters.
type Config struct {
	// TickInterval is the pause between scans.
	TickInterval time.Duration
	// RecentTTL is how long an executed intent id stays in the dedup
	// window after submission.
	RecentTTL time.Duration
	// MaxParallel bounds concurrent per-intent processors within a tick.
	MaxParallel int

	// ExecutorCapID authorizes intent execution calls.
	ExecutorCapID string
	// FundingCoins maps pay asset type to the executor's coin object id.
	FundingCoins map[string]string
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		TickInterval: 5 * time.Second,
		RecentTTL:    60 * time.Second,
		MaxParallel:  4,
	}
}

// Engine drives intent execution over the cache, router and composer.
type Engine struct {
	cfg      Config
	book     *book.Book
	router   *router.Router
	composer *compose.Composer
	client   chain.Client
	keys     *crypto.Keypair
	shim     *confidential.Shim
	issuer   SessionIssuer
	journal  Journal

	// inflight guards against the same intent being processed twice
	// concurrently; recent guards against reprocessing across ticks while
	// the chain catches up to our submission.
	mu       sync.Mutex
	inflight map[string]struct{}
	recent   *expirable.LRU[string, time.Time]

	metrics *Metrics

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

// New wires an engine. keys may be nil only if the engine is used purely
// for quoting.
func New(cfg Config, b *book.Book, r *router.Router, c *compose.Composer,
	client chain.Client, keys *crypto.Keypair, shim *confidential.Shim) *Engine {

	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 5 * time.Second
	}
	if cfg.RecentTTL <= 0 {
		cfg.RecentTTL = 60 * time.Second
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = 4
	}
	return &Engine{
		cfg:      cfg,
		book:     b,
		router:   r,
		composer: c,
		client:   client,
		keys:     keys,
		shim:     shim,
		inflight: make(map[string]struct{}),
		recent:   expirable.NewLRU[string, time.Time](4096, nil, cfg.RecentTTL),
		metrics:  &Metrics{startedAt: time.Now()},
		done:     make(chan struct{}),
	}
}

// SetSessionIssuer installs the optional credential refresher.
func (e *Engine) SetSessionIssuer(issuer SessionIssuer) {
	e.issuer = issuer
}

// SetJournal installs the optional durable dedup record.
func (e *Engine) SetJournal(journal Journal) {
	e.journal = journal
}

// Metrics exposes the engine counters for the status endpoint.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// Start launches the loop. Stop or context cancellation ends it.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	go e.run(ctx)
	log.Printf("engine: started, tick interval %s", e.cfg.TickInterval)
}

// Stop ends the loop and waits for the current tick to drain.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		if e.cancel != nil {
			e.cancel()
		}
		<-e.done
		log.Printf("engine: stopped")
	})
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()

	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick scans the pending intents and processes each under a bounded pool.
// The whole tick shares one deadline so a stuck venue cannot push the loop
// past its interval indefinitely.
func (e *Engine) tick(ctx context.Context) {
	start := time.Now()
	defer func() { mtxTickDuration.Observe(time.Since(start).Seconds()) }()

	e.refreshSession(ctx)

	intents := e.book.PendingIntents()
	if len(intents) == 0 {
		return
	}

	tickCtx, cancel := context.WithTimeout(ctx, e.cfg.TickInterval)
	defer cancel()

	sem := semaphore.NewWeighted(int64(e.cfg.MaxParallel))
	var wg sync.WaitGroup
	for i := range intents {
		intent := intents[i]
		if err := sem.Acquire(tickCtx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			e.process(tickCtx, &intent)
		}()
	}
	wg.Wait()
}

// refreshSession renews the confidentiality credential when the cached one
// is gone. Failures are logged and retried next tick.
func (e *Engine) refreshSession(ctx context.Context) {
	if e.issuer == nil || e.shim == nil || e.shim.SessionValid() {
		return
	}
	credential, expiresAt, err := e.issuer.IssueSession(ctx)
	if err != nil {
		log.Printf("engine: session refresh failed: %v", err)
		return
	}
	e.shim.SetSession(credential, expiresAt)
	log.Printf("engine: session credential refreshed, valid until %s", expiresAt.Format(time.RFC3339))
}

// process runs one intent through dedup, parameter resolution, routing,
// constraint checks, composition, signing and submission, and records the
// outcome.
func (e *Engine) process(ctx context.Context, intent *types.Intent) Outcome {
	e.metrics.recordProcessed()
	outcome := e.processIntent(ctx, intent)
	e.metrics.recordOutcome(outcome)
	return outcome
}

func (e *Engine) processIntent(ctx context.Context, intent *types.Intent) Outcome {
	if !e.claim(intent.IntentID) {
		return OutcomeDeduped
	}
	defer e.release(intent.IntentID)

	if _, seen := e.recent.Get(intent.IntentID); seen {
		return OutcomeDeduped
	}
	if e.journal != nil {
		done, err := e.journal.WasExecuted(intent.IntentID)
		if err != nil {
			log.Printf("engine: journal lookup for %s: %v", intent.IntentID, err)
		} else if done {
			return OutcomeDeduped
		}
	}

	nowMs := uint64(time.Now().UnixMilli())
	if !intent.Pending(nowMs) {
		return OutcomeExpired
	}

	params, outcome := e.resolveParams(ctx, intent)
	if outcome != OutcomeExecuted {
		return outcome
	}

	// Bound the work by the sooner of the tick deadline and the intent's
	// own expiry.
	ctx, cancel := e.deadlineFor(ctx, intent, nowMs)
	defer cancel()

	decision, ok := e.router.FindRoute(ctx, intent.Pair(), params.ReceiveAmount)
	if !ok {
		return OutcomeNoRoute
	}

	if reason := checkConstraints(intent, params, decision); reason != "" {
		log.Printf("engine: intent %s constraint violation: %s", intent.IntentID, reason)
		return OutcomeConstraintViolation
	}

	fundingCoin := e.cfg.FundingCoins[intent.PayAsset]
	txBytes, err := e.composer.Build(compose.Request{
		Decision:      decision,
		Sender:        e.keys.Address(),
		FundingCoin:   fundingCoin,
		Recipient:     intent.Creator,
		IntentID:      intent.IntentID,
		ExecutorCapID: e.cfg.ExecutorCapID,
		Opaque:        intent.Opaque(),
		Params:        params,
	})
	if err != nil {
		log.Printf("engine: intent %s compose failed: %v", intent.IntentID, err)
		return OutcomeSubmissionFailed
	}

	signature := e.keys.SignTransaction(txBytes)
	result, err := e.client.ExecuteTransaction(ctx, txBytes, signature)
	if err != nil {
		log.Printf("engine: intent %s submission failed: %v", intent.IntentID, err)
		return OutcomeSubmissionFailed
	}
	if !result.Success {
		log.Printf("engine: intent %s rejected on-chain: %s", intent.IntentID, result.Status)
		return OutcomeSubmissionFailed
	}

	e.recent.Add(intent.IntentID, time.Now())
	if e.journal != nil {
		if err := e.journal.MarkExecuted(intent.IntentID, time.Now()); err != nil {
			log.Printf("engine: journal write for %s: %v", intent.IntentID, err)
		}
	}
	e.metrics.recordGas(result.Gas.Total())
	log.Printf("engine: intent %s executed, digest %s, legs %d, paid %d",
		intent.IntentID, result.Digest, len(decision.Legs), decision.TotalPayAmount)
	return OutcomeExecuted
}

// resolveParams yields the effective routing parameters: plain fields, or
// the decrypted values of an opaque intent. The Outcome is OutcomeExecuted
// on success, otherwise the reason processing stops here.
func (e *Engine) resolveParams(ctx context.Context, intent *types.Intent) (*types.IntentParams, Outcome) {
	if !intent.Opaque() {
		return &types.IntentParams{
			ReceiveAmount: intent.ReceiveAmount,
			MinPrice:      intent.MinPrice,
			MaxPrice:      intent.MaxPrice,
		}, OutcomeExecuted
	}
	if e.shim == nil {
		return nil, OutcomeConfidentialityMiss
	}
	params, ok := e.shim.Decrypt(ctx, intent.IntentID)
	if !ok {
		return nil, OutcomeConfidentialityMiss
	}
	return params, OutcomeExecuted
}

func (e *Engine) deadlineFor(ctx context.Context, intent *types.Intent, nowMs uint64) (context.Context, context.CancelFunc) {
	if intent.ExpiryMs <= nowMs {
		return context.WithCancel(ctx)
	}
	untilExpiry := time.Duration(intent.ExpiryMs-nowMs) * time.Millisecond
	return context.WithTimeout(ctx, untilExpiry)
}

// checkConstraints validates a decision against the intent's bounds before
// any funds move. Returns an empty string when the decision is admissible.
func checkConstraints(intent *types.Intent, params *types.IntentParams, d *types.RoutingDecision) string {
	if d.TotalReceiveAmount < params.ReceiveAmount {
		return fmt.Sprintf("fill %d below requested %d", d.TotalReceiveAmount, params.ReceiveAmount)
	}
	if intent.MaxPayAmount > 0 && d.TotalPayAmount > intent.MaxPayAmount {
		return fmt.Sprintf("pay %d exceeds cap %d", d.TotalPayAmount, intent.MaxPayAmount)
	}
	if !pricing.InBounds(d.BlendedPrice, params.MinPrice, params.MaxPrice) {
		return fmt.Sprintf("blended price %d outside [%d, %d]", d.BlendedPrice, params.MinPrice, params.MaxPrice)
	}
	for i := range d.Legs {
		leg := &d.Legs[i]
		if leg.Native() && leg.EffectivePrice < leg.SourceMinPrice {
			return fmt.Sprintf("leg %d price %d below offer minimum %d", i, leg.EffectivePrice, leg.SourceMinPrice)
		}
	}
	return ""
}

func (e *Engine) claim(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inflight[id]; busy {
		return false
	}
	e.inflight[id] = struct{}{}
	return true
}

func (e *Engine) release(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inflight, id)
}

// Quote runs a one-shot route search without executing, for the CLI and
// the status surface.
func (e *Engine) Quote(ctx context.Context, pair types.Pair, receiveAmount uint64) (*types.RoutingDecision, bool) {
	return e.router.FindRoute(ctx, pair, receiveAmount)
}
