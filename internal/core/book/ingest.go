package book

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/halcyonex/routerd/internal/chain"
)

const (
	defaultPollBatch = 200
	initialBackoff   = 500 * time.Millisecond
	maxBackoff       = 30 * time.Second
	resubscribeAfter = 5 * time.Minute
)

// IngestorConfig configures the cache's event feed.
type IngestorConfig struct {
	PackageID    string
	PollInterval time.Duration
	PollBatch    int
}

// Ingestor is the sole writer to a Book. It prefers a push subscription and
// falls back to polling from a monotonically advancing cursor when the
// subscription is unavailable or drops.
type Ingestor struct {
	book   *Book
	client chain.Client
	cfg    IngestorConfig

	cursor *chain.EventCursor

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// NewIngestor creates an ingestion worker feeding the book.
func NewIngestor(b *Book, client chain.Client, cfg IngestorConfig) *Ingestor {
	if cfg.PollBatch <= 0 {
		cfg.PollBatch = defaultPollBatch
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Ingestor{book: b, client: client, cfg: cfg, done: make(chan struct{})}
}

// Start backfills history and launches the feed worker.
func (ing *Ingestor) Start(ctx context.Context) error {
	// Initial catch-up so the first tick sees a populated cache.
	if err := ing.pollOnce(ctx); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	ing.cancel = cancel
	go ing.run(runCtx)
	return nil
}

// Stop tears the feed down and waits for the worker to exit.
func (ing *Ingestor) Stop() {
	ing.once.Do(func() {
		if ing.cancel != nil {
			ing.cancel()
		}
		<-ing.done
	})
}

func (ing *Ingestor) run(ctx context.Context) {
	defer close(ing.done)

	backoff := initialBackoff
	for {
		if ctx.Err() != nil {
			return
		}

		sub, err := ing.client.SubscribeEvents(ctx, ing.cfg.PackageID)
		if err != nil {
			if !errors.Is(err, chain.ErrPushUnsupported) {
				log.Printf("book: subscribe: %v", err)
			}
			// Poll until the backoff window elapses, then retry push.
			if !ing.pollFor(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		log.Printf("book: push subscription established")
		backoff = initialBackoff
		if !ing.consume(ctx, sub) {
			return
		}
		// Subscription dropped: resume from the cursor before retrying.
		log.Printf("book: push subscription lost, falling back to polling")
	}
}

// consume drains a push subscription until it errors or ctx ends. Push
// events advance state but not the poll cursor, so a reconnect re-reads
// them; application is idempotent so the overlap is harmless.
func (ing *Ingestor) consume(ctx context.Context, sub chain.Subscription) bool {
	defer sub.Close()
	deadline := time.NewTimer(resubscribeAfter)
	defer deadline.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-sub.Events():
			if !ok {
				return true
			}
			ing.book.Apply(ev)
		case err := <-sub.Err():
			log.Printf("book: subscription error: %v", err)
			return true
		case <-deadline.C:
			// Periodic poll keeps the cursor advancing while pushed
			// events flow, bounding replay after a drop.
			if err := ing.pollOnce(ctx); err != nil && ctx.Err() == nil {
				log.Printf("book: cursor refresh: %v", err)
			}
			deadline.Reset(resubscribeAfter)
		}
	}
}

// pollFor polls at the configured interval for roughly the given duration.
// Returns false when ctx ended.
func (ing *Ingestor) pollFor(ctx context.Context, window time.Duration) bool {
	end := time.Now().Add(window)
	ticker := time.NewTicker(ing.cfg.PollInterval)
	defer ticker.Stop()
	for {
		if err := ing.pollOnce(ctx); err != nil && ctx.Err() == nil {
			log.Printf("book: poll: %v", err)
		}
		if time.Now().After(end) {
			return ctx.Err() == nil
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}

// pollOnce drains all events available after the cursor, in bounded pages.
func (ing *Ingestor) pollOnce(ctx context.Context) error {
	for {
		events, next, err := ing.client.QueryEvents(ctx, ing.cfg.PackageID, ing.cursor, ing.cfg.PollBatch)
		if err != nil {
			return err
		}
		for _, ev := range events {
			ing.book.Apply(ev)
		}
		ing.cursor = next
		if len(events) < ing.cfg.PollBatch {
			return nil
		}
	}
}
