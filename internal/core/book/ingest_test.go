package book

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonex/routerd/internal/chain"
)

// pagingClient serves a fixed event history through QueryEvents and never
// supports push.
type pagingClient struct {
	mu     sync.Mutex
	events []chain.RawEvent
	polls  int
}

func (c *pagingClient) QueryEvents(ctx context.Context, packageID string, cursor *chain.EventCursor, limit int) ([]chain.RawEvent, *chain.EventCursor, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++

	start := 0
	if cursor != nil {
		for i, ev := range c.events {
			if ev.Cursor == *cursor {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(c.events) {
		end = len(c.events)
	}
	page := c.events[start:end]
	next := cursor
	if len(page) > 0 {
		last := page[len(page)-1].Cursor
		next = &last
	}
	return page, next, nil
}

func (c *pagingClient) SubscribeEvents(ctx context.Context, packageID string) (chain.Subscription, error) {
	return nil, chain.ErrPushUnsupported
}

func (c *pagingClient) GetObject(ctx context.Context, objectID string) (json.RawMessage, error) {
	return nil, nil
}

func (c *pagingClient) ExecuteTransaction(ctx context.Context, txBytes, signature []byte) (*chain.ExecuteResult, error) {
	return nil, nil
}

func historyEvent(t *testing.T, seq uint64, offerID string) chain.RawEvent {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"offer_id":       offerID,
		"maker":          "0xm",
		"offer_asset":    "BASE",
		"want_asset":     "QUOTE",
		"initial_amount": 100,
		"min_price":      1,
		"max_price":      2,
		"fill_policy":    1,
		"expiry_ms":      uint64(time.Now().UnixMilli()) + 3_600_000,
	})
	require.NoError(t, err)
	return chain.RawEvent{
		Type:    "0xpkg::events::OfferCreatedV2",
		Payload: payload,
		Cursor:  chain.EventCursor{TxDigest: "0xd", EventSeq: seq},
	}
}

func TestIngestorBackfillsHistory(t *testing.T) {
	client := &pagingClient{events: []chain.RawEvent{
		historyEvent(t, 1, "0x1"),
		historyEvent(t, 2, "0x2"),
		historyEvent(t, 3, "0x3"),
	}}
	b := New()
	ing := NewIngestor(b, client, IngestorConfig{
		PackageID:    "0xpkg",
		PollInterval: 10 * time.Millisecond,
		PollBatch:    2, // force pagination
	})

	require.NoError(t, ing.Start(context.Background()))
	defer ing.Stop()

	offers, _ := b.Counts()
	assert.Equal(t, 3, offers, "backfill completes before Start returns")
	client.mu.Lock()
	assert.GreaterOrEqual(t, client.polls, 2, "short pages force multiple queries")
	client.mu.Unlock()
}

func TestIngestorPollsWhenPushUnavailable(t *testing.T) {
	client := &pagingClient{events: []chain.RawEvent{historyEvent(t, 1, "0x1")}}
	b := New()
	ing := NewIngestor(b, client, IngestorConfig{
		PackageID:    "0xpkg",
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, ing.Start(context.Background()))

	// Append an event after startup; polling must pick it up.
	client.mu.Lock()
	client.events = append(client.events, historyEvent(t, 2, "0x2"))
	client.mu.Unlock()

	require.Eventually(t, func() bool {
		offers, _ := b.Counts()
		return offers == 2
	}, time.Second, 5*time.Millisecond)

	ing.Stop()
}

func TestIngestorStopIsIdempotent(t *testing.T) {
	client := &pagingClient{}
	ing := NewIngestor(New(), client, IngestorConfig{
		PackageID:    "0xpkg",
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, ing.Start(context.Background()))
	ing.Stop()
	ing.Stop()
}
